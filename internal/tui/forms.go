package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"habitbreak/internal/constants"
)

// newAuthForm creates the login/register form.
func newAuthForm(fm *AuthFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("New account?").
				Affirmative("Register").
				Negative("Login").
				Value(&fm.Register),
			huh.NewInput().
				Title("Email").
				Value(&fm.Email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Display name").
				Description("Optional, only used when registering").
				Value(&fm.DisplayName),
		),
	).WithTheme(huh.ThemeDracula())
}

// newJournalForm creates the craving-log form.
func newJournalForm(fm *JournalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What happened? How did you respond?").
				Value(&fm.Note),
			huh.NewInput().
				Title("Intensity (1-10)").
				Value(&fm.Intensity).
				Validate(func(s string) error {
					i, err := strconv.Atoi(s)
					if err != nil {
						return err
					}
					if i < constants.IntensityMin || i > constants.IntensityMax {
						return fmt.Errorf("intensity must be 1-10")
					}
					return nil
				}),
			huh.NewInput().
				Title("Feeling").
				Description("e.g., bored, stressed").
				Value(&fm.Feeling),
		),
	).WithTheme(huh.ThemeDracula())
}

// newGoalForm creates the goal-creation form.
func newGoalForm(fm *GoalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal").
				Placeholder("Example: 30-day clean streak").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("goal title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Target days").
				Value(&fm.TargetDays),
		),
	).WithTheme(huh.ThemeDracula())
}

// newGoalEditForm creates the per-row edit form.
func newGoalEditForm(fm *GoalEditFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title),
			huh.NewInput().
				Title("Target days").
				Value(&fm.TargetDays),
			huh.NewInput().
				Title("Completed date (YYYY-MM-DD)").
				Description("Leave empty to keep the goal open").
				Value(&fm.CompletedDate).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse(constants.DateFormat, s); err != nil {
						return fmt.Errorf("invalid date, use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
