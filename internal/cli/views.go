package cli

import (
	"fmt"
	"strings"

	"habitbreak/internal/constants"
	"habitbreak/internal/models"
)

type CheckinCmd struct{}

func (c *CheckinCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.CheckIn(ctx); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	fmt.Printf("Checked in. Current streak: %d days (total %d logged).\n",
		st.Streak.CurrentStreak, st.Streak.DaysLogged)
	return nil
}

type TipsCmd struct{}

func (c *TipsCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.LoadTips(ctx); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	fmt.Printf("Tips for %s:\n", constants.HabitLabel(st.Habit))
	for _, t := range st.Tips {
		fmt.Printf("  - %s\n", t)
	}
	return nil
}

type StreakCmd struct{}

func (c *StreakCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.LoadStreak(ctx); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	fmt.Printf("Total days logged: %d\n", st.Streak.DaysLogged)
	fmt.Printf("Current streak:    %d\n", st.Streak.CurrentStreak)
	return nil
}

type MetricsCmd struct {
	Days int `short:"d" help:"Day window (14, 30, or 90)." default:"0"`
}

func (c *MetricsCmd) Validate() error {
	if c.Days != 0 && !constants.IsValidWindow(c.Days) {
		return fmt.Errorf("day window must be one of 14, 30, 90")
	}
	return nil
}

func (c *MetricsCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	if c.Days != 0 {
		if err := appCtx.Controller.WindowChanged(ctx, c.Days); err != nil {
			return err
		}
	} else if err := appCtx.Controller.LoadMetrics(ctx); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	m := st.Metrics
	fmt.Printf("Window: last %d days\n", st.Window)
	fmt.Printf("Journal entries: %d\n", m.JournalCount)
	if m.AvgIntensity != nil {
		fmt.Printf("Avg intensity (last 200): %.1f\n", *m.AvgIntensity)
	} else {
		fmt.Println("Avg intensity (last 200): -")
	}
	if len(m.Checkins) > 0 {
		fmt.Println("Check-ins:")
		fmt.Println(renderBars(m.Checkins))
	}
	return nil
}

// renderBars draws a one-line-per-day check-in history.
func renderBars(days []models.CheckinDay) string {
	var b strings.Builder
	for _, d := range days {
		fmt.Fprintf(&b, "  %s %s\n", d.Day, strings.Repeat("#", d.Count))
	}
	return strings.TrimRight(b.String(), "\n")
}

type HabitCmd struct {
	Set  HabitSetCmd  `cmd:"" help:"Select the habit to focus on."`
	Show HabitShowCmd `cmd:"" help:"Show the selected habit." default:"1"`
}

type HabitSetCmd struct {
	Habit string `arg:"" help:"One of: general, phone, 'junk food', procrastination, smoking, alcohol, gambling."`
}

func (c *HabitSetCmd) Validate() error {
	if !constants.IsValidHabit(c.Habit) {
		return fmt.Errorf("invalid habit %q (choose from: %s)", c.Habit, strings.Join(constants.HabitOptions, ", "))
	}
	return nil
}

func (c *HabitSetCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.HabitChanged(ctx, c.Habit); err != nil {
		return err
	}

	fmt.Printf("Focus set to %s.\n", constants.HabitLabel(c.Habit))
	return nil
}

type HabitShowCmd struct{}

func (c *HabitShowCmd) Run(appCtx *Context) error {
	st := appCtx.Controller.Snapshot()
	fmt.Printf("Focus: %s\n", constants.HabitLabel(st.Habit))
	return nil
}

type RefreshCmd struct{}

func (c *RefreshCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.LoadAll(ctx); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	fmt.Printf("Refreshed: %d tips, %d journal entries, %d goals.\n",
		len(st.Tips), len(st.Journal), len(st.Goals))
	return nil
}
