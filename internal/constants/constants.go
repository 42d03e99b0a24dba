package constants

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName = "habitbreak"
	Version = "v0.2.0"

	// DefaultBackendURL is used when HB_BACKEND_URL is unset
	DefaultBackendURL = "http://localhost:8000"

	// DefaultConfigDir is expanded relative to the user home directory
	DefaultConfigDir = "~/.config/habitbreak"

	// Keyring coordinates for the bearer token
	KeyringService = "habitbreak"
	KeyringUser    = "api-token"

	// Local files under the config dir
	PrefsFileName = "prefs.json"
	CacheFileName = "cache.db"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Session-expired message shown whenever the backend rejects the token
	SessionExpiredMessage = "session expired, please log in again"

	// Journal intensity bounds
	IntensityMin = 1
	IntensityMax = 10

	// Goal target day bounds
	TargetDaysMin = 1
	TargetDaysMax = 3650

	// DefaultWindow is the metrics window used before the user picks one
	DefaultWindow = 14

	// Session States
	StateDashboard SessionState = iota
	StateAuth
	StateJournalForm
	StateGoalForm
	StateGoalEdit
)

// HabitGeneral is the fallback habit used when no preference is stored.
const HabitGeneral = "general"

// HabitOptions is the fixed set of trackable habits, in display order.
var HabitOptions = []string{
	"general",
	"phone",
	"junk food",
	"procrastination",
	"smoking",
	"alcohol",
	"gambling",
}

// HabitLabels maps habit values to their display labels.
var HabitLabels = map[string]string{
	"general":         "General Habit",
	"phone":           "Phone Overuse",
	"junk food":       "Junk Food",
	"procrastination": "Procrastination",
	"smoking":         "Smoking",
	"alcohol":         "Alcohol",
	"gambling":        "Gambling",
}

// MetricsWindows is the set of selectable day windows, in cycle order.
var MetricsWindows = []int{14, 30, 90}

// IsValidHabit reports whether v is one of the enumerated habit values.
func IsValidHabit(v string) bool {
	_, ok := HabitLabels[v]
	return ok
}

// IsValidWindow reports whether d is one of the selectable metrics windows.
func IsValidWindow(d int) bool {
	for _, w := range MetricsWindows {
		if w == d {
			return true
		}
	}
	return false
}

// HabitLabel returns the display label for a habit value, falling back to the
// general label for unknown values.
func HabitLabel(v string) string {
	if l, ok := HabitLabels[v]; ok {
		return l
	}
	return HabitLabels[HabitGeneral]
}
