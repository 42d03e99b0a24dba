package cli

import (
	"fmt"

	"habitbreak/internal/constants"
	"habitbreak/internal/models"
)

type GoalCmd struct {
	Add  GoalAddCmd  `cmd:"" help:"Set a new goal."`
	List GoalListCmd `cmd:"" help:"List your goals." default:"1"`
	Edit GoalEditCmd `cmd:"" help:"Edit a goal's title or target days."`
	Done GoalDoneCmd `cmd:"" help:"Mark a goal done as of today."`
}

type GoalAddCmd struct {
	Title      string `arg:"" help:"Goal title, e.g. '30-day clean streak'."`
	TargetDays string `short:"t" help:"Target day count (1-3650)." default:"30"`
}

func (c *GoalAddCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	appCtx.Controller.SetGoalDraft(models.GoalDraft{
		Title:      c.Title,
		TargetDays: c.TargetDays,
	})

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.SubmitGoal(ctx); err != nil {
		return err
	}

	fmt.Printf("Goal created: %s\n", c.Title)
	return nil
}

type GoalListCmd struct{}

func (c *GoalListCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.LoadGoals(ctx); err != nil {
		return err
	}

	goals := appCtx.Controller.Snapshot().Goals
	if len(goals) == 0 {
		fmt.Println("No goals yet. Create one with 'habitbreak goal add'.")
		return nil
	}

	for _, g := range goals {
		status := ""
		if g.Done() {
			status = fmt.Sprintf(" [done %s]", g.CompletedDate)
		}
		start := g.StartDate
		if start == "" {
			start = "-"
		}
		fmt.Printf("%s  %s (target %d days, started %s)%s\n", g.ID, g.Title, g.TargetDays, start, status)
	}
	return nil
}

type GoalEditCmd struct {
	ID         string `arg:"" help:"Goal ID (see 'goal list')."`
	Title      string `help:"New title."`
	TargetDays string `short:"t" help:"New target day count."`
	Completed  string `help:"Completion date (YYYY-MM-DD)."`
}

func (c *GoalEditCmd) Validate() error {
	if c.Title == "" && c.TargetDays == "" && c.Completed == "" {
		return fmt.Errorf("nothing to change; pass --title, --target-days, or --completed")
	}
	if c.TargetDays != "" {
		days := models.ParseTargetDays(c.TargetDays)
		if days < constants.TargetDaysMin || days > constants.TargetDaysMax {
			return fmt.Errorf("target days must be between %d and %d", constants.TargetDaysMin, constants.TargetDaysMax)
		}
	}
	return nil
}

func (c *GoalEditCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	// Seed the edit from the current row so unchanged fields are omitted
	// from the patch.
	if err := appCtx.Controller.LoadGoals(ctx); err != nil {
		return err
	}
	appCtx.Controller.StartEditGoal(c.ID)

	st := appCtx.Controller.Snapshot()
	if st.EditingGoalID == "" {
		return fmt.Errorf("goal %q not found", c.ID)
	}

	edit := st.GoalEdit
	if c.Title != "" {
		edit.Title = c.Title
	}
	if c.TargetDays != "" {
		edit.TargetDays = c.TargetDays
	}
	if c.Completed != "" {
		edit.CompletedDate = c.Completed
	}
	appCtx.Controller.SetGoalEdit(edit)

	if err := appCtx.Controller.SaveGoalEdit(ctx); err != nil {
		return err
	}

	fmt.Println("Goal updated.")
	return nil
}

type GoalDoneCmd struct {
	ID string `arg:"" help:"Goal ID (see 'goal list')."`
}

func (c *GoalDoneCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.MarkGoalDoneToday(ctx, c.ID); err != nil {
		return err
	}

	fmt.Println("Goal marked done as of today.")
	return nil
}
