package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"habitbreak/internal/constants"
	"habitbreak/internal/logger"
	"habitbreak/internal/models"
)

// ErrSessionExpired is returned for any request the backend rejects with 401.
// It replaces the generic status error so callers can show a fixed message and
// the session teardown hook has already run by the time they see it.
var ErrSessionExpired = errors.New(constants.SessionExpiredMessage)

// StatusError is any non-2xx, non-401 response.
type StatusError struct {
	Code int
	Text string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, e.Text, e.Body)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Text)
}

// Client talks to the Habit Breaker backend. All requests carry a JSON content
// type and, when a token is available, a bearer Authorization header.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	token            func() string
	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithToken supplies the token source consulted on every request. An empty
// string means no session.
func WithToken(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithSessionExpiredHook registers a callback fired whenever the backend
// answers 401, before the call returns ErrSessionExpired.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues a single request and decodes the JSON response into out (when out
// is non-nil). There are no retries; a failed call fails once.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if tok := c.currentToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Debug("Request rejected as unauthorized", "method", method, "path", path)
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{
			Code: resp.StatusCode,
			Text: http.StatusText(resp.StatusCode),
			Body: strings.TrimSpace(string(raw)),
		}
		logger.Debug("Request failed", "method", method, "path", path, "status", resp.StatusCode)
		return serr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) currentToken() string {
	if c.token == nil {
		return ""
	}
	return c.token()
}

// Tips fetches coping tips for a habit.
func (c *Client) Tips(ctx context.Context, habit string) ([]string, error) {
	var resp models.TipsResponse
	q := url.Values{"habit": {habit}}
	if err := c.do(ctx, http.MethodGet, "/api/tips", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tips, nil
}

// Journal lists the user's journal entries, newest first.
func (c *Client) Journal(ctx context.Context) ([]models.JournalEntry, error) {
	var resp models.JournalListResponse
	if err := c.do(ctx, http.MethodGet, "/api/journal", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateJournal records a new journal entry.
func (c *Client) CreateJournal(ctx context.Context, entry models.JournalCreate) error {
	return c.do(ctx, http.MethodPost, "/api/journal", nil, entry, nil)
}

// Goals lists the user's goals.
func (c *Client) Goals(ctx context.Context) ([]models.Goal, error) {
	var resp models.GoalListResponse
	if err := c.do(ctx, http.MethodGet, "/api/goals", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateGoal creates a new goal.
func (c *Client) CreateGoal(ctx context.Context, goal models.GoalCreate) error {
	return c.do(ctx, http.MethodPost, "/api/goals", nil, goal, nil)
}

// UpdateGoal applies a partial update. Fields absent from the patch are
// omitted from the body so the server leaves them unchanged.
func (c *Client) UpdateGoal(ctx context.Context, id string, patch models.GoalPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/goals/"+url.PathEscape(id), nil, patch, nil)
}

// Streak fetches the server-computed streak snapshot.
func (c *Client) Streak(ctx context.Context) (models.StreakSnapshot, error) {
	var resp models.StreakSnapshot
	err := c.do(ctx, http.MethodGet, "/api/streak", nil, nil, &resp)
	return resp, err
}

// Metrics fetches the metrics snapshot for a day window.
func (c *Client) Metrics(ctx context.Context, days int) (models.MetricsSnapshot, error) {
	var resp models.MetricsSnapshot
	q := url.Values{"days": {fmt.Sprintf("%d", days)}}
	err := c.do(ctx, http.MethodGet, "/api/metrics", q, nil, &resp)
	return resp, err
}

// CheckIn records today's check-in.
func (c *Client) CheckIn(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/checkin", nil, struct{}{}, nil)
}

// Me fetches the current user profile.
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var resp models.Profile
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &resp)
	return resp, err
}

// Register creates an account and returns the bearer token.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Login authenticates and returns the bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// RequestReset starts the password-reset flow. The reset token is delivered
// out of band.
func (c *Client) RequestReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/request-reset", nil, models.ResetRequest{Email: email}, nil)
}

// ConfirmReset finishes the password-reset flow.
func (c *Client) ConfirmReset(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/confirm-reset", nil, models.ResetConfirm{Token: token, NewPassword: newPassword}, nil)
}

// RequestVerify starts the email-verification flow.
func (c *Client) RequestVerify(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/request-verify", nil, models.VerifyRequest{Email: email}, nil)
}

// ConfirmVerify finishes the email-verification flow.
func (c *Client) ConfirmVerify(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/confirm-verify", nil, models.VerifyConfirm{Token: token}, nil)
}

// UpdateProfile mirrors the selected habit to the server profile.
func (c *Client) UpdateProfile(ctx context.Context, habit string) error {
	return c.do(ctx, http.MethodPut, "/api/profile", nil, models.ProfileUpdate{SelectedHabit: habit}, nil)
}
