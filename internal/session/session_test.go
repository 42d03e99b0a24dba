package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"habitbreak/internal/constants"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	keyring.MockInit()

	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	return s, dir
}

func TestTokenRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	if _, err := s.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token on fresh store: %v, want ErrNoToken", err)
	}
	if got := s.TokenOrEmpty(); got != "" {
		t.Fatalf("TokenOrEmpty on fresh store = %q", got)
	}

	if err := s.SetToken("abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	tok, err := s.Token()
	if err != nil || tok != "abc123" {
		t.Fatalf("Token = %q (%v), want abc123", tok, err)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := s.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token after clear: %v, want ErrNoToken", err)
	}
}

func TestClearToken_Idempotent(t *testing.T) {
	s, _ := newStore(t)
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken on empty store: %v", err)
	}
}

func TestPrefsPersistAcrossReopen(t *testing.T) {
	s, dir := newStore(t)

	if err := s.SetHabit("smoking"); err != nil {
		t.Fatalf("SetHabit: %v", err)
	}
	if err := s.SetWindow(90); err != nil {
		t.Fatalf("SetWindow: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Habit(); got != "smoking" {
		t.Errorf("habit after reopen = %q, want smoking", got)
	}
	if got := reopened.Window(); got != 90 {
		t.Errorf("window after reopen = %d, want 90", got)
	}
}

func TestPrefsSurviveTokenClear(t *testing.T) {
	s, _ := newStore(t)

	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetHabit("alcohol"); err != nil {
		t.Fatalf("SetHabit: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}

	if got := s.Habit(); got != "alcohol" {
		t.Errorf("habit after token clear = %q, want alcohol", got)
	}
}

func TestDefaults(t *testing.T) {
	s, _ := newStore(t)

	if got := s.Habit(); got != constants.HabitGeneral {
		t.Errorf("default habit = %q, want %q", got, constants.HabitGeneral)
	}
	if got := s.Window(); got != constants.DefaultWindow {
		t.Errorf("default window = %d, want %d", got, constants.DefaultWindow)
	}
}

func TestInvalidPrefsFallBackToDefaults(t *testing.T) {
	_, dir := newStore(t)

	prefs := filepath.Join(dir, constants.PrefsFileName)
	if err := os.WriteFile(prefs, []byte(`{"habit":"not-a-habit","window":7}`), 0o600); err != nil {
		t.Fatalf("write prefs: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Habit(); got != constants.HabitGeneral {
		t.Errorf("habit = %q, want default %q", got, constants.HabitGeneral)
	}
	if got := reopened.Window(); got != constants.DefaultWindow {
		t.Errorf("window = %d, want default %d", got, constants.DefaultWindow)
	}
}
