package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"habitbreak/internal/constants"
)

var (
	// ErrNoToken is returned when no bearer token is stored.
	ErrNoToken = errors.New("no stored session token")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Prefs are the non-secret durable client settings. The habit preference
// survives logout; only the token is cleared.
type Prefs struct {
	Habit  string `json:"habit"`
	Window int    `json:"window"`
}

// Store keeps the two halves of durable local state: the bearer token in the
// OS keyring and preferences in a JSON file under the config dir.
type Store struct {
	prefsPath string
	prefs     Prefs
}

// NewStore loads (or initializes) the prefs file under configDir.
func NewStore(configDir string) (*Store, error) {
	s := &Store{
		prefsPath: filepath.Join(configDir, constants.PrefsFileName),
		prefs: Prefs{
			Habit:  constants.HabitGeneral,
			Window: constants.DefaultWindow,
		},
	}

	data, err := os.ReadFile(s.prefsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(data, &s.prefs); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	if !constants.IsValidHabit(s.prefs.Habit) {
		s.prefs.Habit = constants.HabitGeneral
	}
	if !constants.IsValidWindow(s.prefs.Window) {
		s.prefs.Window = constants.DefaultWindow
	}
	return s, nil
}

// Token retrieves the bearer token from the OS keyring. Returns ErrNoToken
// when no session is stored.
func (s *Store) Token() (string, error) {
	tok, err := keyring.Get(constants.KeyringService, constants.KeyringUser)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return tok, nil
}

// TokenOrEmpty is Token without the error, for use as a request token source.
func (s *Store) TokenOrEmpty() string {
	tok, err := s.Token()
	if err != nil {
		return ""
	}
	return tok
}

// SetToken stores the bearer token in the OS keyring.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(constants.KeyringService, constants.KeyringUser, token); err != nil {
		return fmt.Errorf("store token in keyring: %w", err)
	}
	return nil
}

// ClearToken removes the bearer token from the OS keyring. Clearing an
// already-empty keyring is not an error.
func (s *Store) ClearToken() error {
	err := keyring.Delete(constants.KeyringService, constants.KeyringUser)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("delete token from keyring: %w", err)
	}
	return nil
}

// Habit returns the persisted habit preference.
func (s *Store) Habit() string {
	return s.prefs.Habit
}

// SetHabit persists the habit preference. Invalid values are rejected.
func (s *Store) SetHabit(habit string) error {
	if !constants.IsValidHabit(habit) {
		return fmt.Errorf("invalid habit: %q", habit)
	}
	s.prefs.Habit = habit
	return s.save()
}

// Window returns the persisted metrics window.
func (s *Store) Window() int {
	return s.prefs.Window
}

// SetWindow persists the metrics window preference.
func (s *Store) SetWindow(days int) error {
	if !constants.IsValidWindow(days) {
		return fmt.Errorf("invalid metrics window: %d", days)
	}
	s.prefs.Window = days
	return s.save()
}

// save writes prefs atomically: to a temp file first, then rename.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.prefsPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.prefsPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
