package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"habitbreak/internal/constants"
)

// Config holds everything the client needs to talk to the backend and to find
// its local state on disk.
type Config struct {
	BackendURL  string
	ConfigDir   string
	HTTPTimeout time.Duration
	Debug       bool
}

// Load reads configuration from the environment, with a .env file (if present)
// taking effect first. Missing values fall back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:  getEnv("HB_BACKEND_URL", constants.DefaultBackendURL),
		ConfigDir:   getEnv("HB_CONFIG_DIR", constants.DefaultConfigDir),
		HTTPTimeout: 15 * time.Second,
		Debug:       getEnvBool("HB_DEBUG", false),
	}

	if v := os.Getenv("HB_HTTP_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, errors.New("HB_HTTP_TIMEOUT_SEC must be a positive integer")
		}
		cfg.HTTPTimeout = time.Duration(sec) * time.Second
	}

	dir, err := expandHome(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("HB_BACKEND_URL must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("HB_BACKEND_URL must use http or https")
	}
	if c.ConfigDir == "" {
		return errors.New("config dir cannot be empty")
	}
	return nil
}

// EnsureConfigDir creates the config directory if it does not exist yet.
func (c *Config) EnsureConfigDir() error {
	return os.MkdirAll(c.ConfigDir, 0o755)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
