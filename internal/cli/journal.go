package cli

import (
	"fmt"

	"habitbreak/internal/constants"
	"habitbreak/internal/models"
)

type JournalCmd struct {
	Add  JournalAddCmd  `cmd:"" help:"Log a trigger or craving."`
	List JournalListCmd `cmd:"" help:"Show recent journal entries." default:"1"`
}

type JournalAddCmd struct {
	Note      string `arg:"" help:"What happened? How did you respond?"`
	Intensity int    `short:"i" help:"Craving intensity (1-10)." default:"5"`
	Feeling   string `short:"f" help:"Feeling, e.g. bored, stressed."`
}

func (c *JournalAddCmd) Validate() error {
	if c.Intensity < constants.IntensityMin || c.Intensity > constants.IntensityMax {
		return fmt.Errorf("intensity must be between %d and %d", constants.IntensityMin, constants.IntensityMax)
	}
	return nil
}

func (c *JournalAddCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	appCtx.Controller.SetJournalDraft(models.JournalDraft{
		Note:      c.Note,
		Intensity: c.Intensity,
		Feeling:   c.Feeling,
	})

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.SubmitJournal(ctx); err != nil {
		return err
	}

	fmt.Println("Entry saved.")
	return nil
}

type JournalListCmd struct {
	Limit int `short:"l" help:"Maximum entries to show." default:"10"`
}

func (c *JournalListCmd) Run(appCtx *Context) error {
	if err := requireSession(appCtx); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.LoadJournal(ctx); err != nil {
		return err
	}

	entries := appCtx.Controller.Snapshot().Journal
	if len(entries) == 0 {
		fmt.Println("No entries yet. Log your first one with 'habitbreak journal add'.")
		return nil
	}

	if c.Limit > 0 && len(entries) > c.Limit {
		entries = entries[:c.Limit]
	}
	for _, e := range entries {
		fmt.Printf("%s  [intensity %d]\n", e.CreatedAt, e.Intensity)
		fmt.Printf("  %s\n", e.Note)
		if e.Feeling != "" {
			fmt.Printf("  Feeling: %s\n", e.Feeling)
		}
	}
	return nil
}
