package models

import (
	"strconv"
	"strings"
)

// Profile is the authenticated user as reported by GET /api/auth/me.
type Profile struct {
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	IsVerified    bool   `json:"is_verified"`
	SelectedHabit string `json:"selected_habit"`
}

// Name returns the best display string for the profile.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}

// JournalEntry is a single craving/trigger log. Entries are immutable once
// created; the client never edits or deletes them.
type JournalEntry struct {
	ID        string `json:"id"`
	Note      string `json:"note"`
	Intensity int    `json:"intensity"`
	Feeling   string `json:"feeling"`
	CreatedAt string `json:"created_at"`
}

// JournalDraft holds the unsubmitted journal form fields.
type JournalDraft struct {
	Note      string `json:"note"`
	Intensity int    `json:"intensity"`
	Feeling   string `json:"feeling"`
}

// Empty reports whether the draft note is empty or whitespace-only, in which
// case submission is a no-op.
func (d JournalDraft) Empty() bool {
	return strings.TrimSpace(d.Note) == ""
}

// Goal is a target-day commitment, e.g. "30-day clean streak".
type Goal struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TargetDays    int    `json:"target_days"`
	StartDate     string `json:"start_date,omitempty"`
	CompletedDate string `json:"completed_date,omitempty"`
}

// Done reports whether the goal has been marked complete.
func (g Goal) Done() bool {
	return g.CompletedDate != ""
}

// GoalDraft holds the unsubmitted goal-creation form fields. TargetDays is
// kept as raw input text so non-numeric entry can be coerced at submit time.
type GoalDraft struct {
	Title      string `json:"title"`
	TargetDays string `json:"target_days"`
}

// GoalPatch is a partial goal update. Absent fields are omitted from the
// request body entirely, so the server leaves them unchanged. In particular a
// nil CompletedDate must not serialize as null or "".
type GoalPatch struct {
	Title         *string `json:"title,omitempty"`
	TargetDays    *int    `json:"target_days,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p GoalPatch) Empty() bool {
	return p.Title == nil && p.TargetDays == nil && p.CompletedDate == nil
}

// StreakSnapshot is the server's view of check-in history.
type StreakSnapshot struct {
	DaysLogged    int `json:"days_logged"`
	CurrentStreak int `json:"current_streak"`
}

// CheckinDay is one bar of the check-in chart.
type CheckinDay struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// MetricsSnapshot is the server-computed metrics bundle for a day window. The
// rolling average series is precomputed server-side; the client only renders it.
type MetricsSnapshot struct {
	Checkins     []CheckinDay `json:"checkins"`
	JournalCount int          `json:"journal_count"`
	AvgIntensity *float64     `json:"avg_intensity"`
	RollingAvg   []float64    `json:"rolling_avg"`
	Window       int          `json:"window"`
}

// TipsResponse wraps GET /api/tips.
type TipsResponse struct {
	Tips []string `json:"tips"`
}

// JournalListResponse wraps GET /api/journal.
type JournalListResponse struct {
	Items []JournalEntry `json:"items"`
}

// GoalListResponse wraps GET /api/goals.
type GoalListResponse struct {
	Items []Goal `json:"items"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
}

// ResetRequest starts the password-reset flow.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetConfirm finishes the password-reset flow.
type ResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyRequest starts the email-verification flow.
type VerifyRequest struct {
	Email string `json:"email"`
}

// VerifyConfirm finishes the email-verification flow.
type VerifyConfirm struct {
	Token string `json:"token"`
}

// ProfileUpdate is the body of PUT /api/profile.
type ProfileUpdate struct {
	SelectedHabit string `json:"selected_habit"`
}

// JournalCreate is the body of POST /api/journal.
type JournalCreate struct {
	Note      string `json:"note"`
	Intensity int    `json:"intensity"`
	Feeling   string `json:"feeling"`
}

// GoalCreate is the body of POST /api/goals.
type GoalCreate struct {
	Title      string `json:"title"`
	TargetDays int    `json:"target_days"`
}

// ParseTargetDays coerces raw target-day input to a number. Non-numeric input
// yields zero, matching form semantics where the server rejects the value.
func ParseTargetDays(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
