package main

import (
	"net/http"
	"path/filepath"

	"github.com/alecthomas/kong"

	"habitbreak/internal/api"
	"habitbreak/internal/cache"
	"habitbreak/internal/cli"
	"habitbreak/internal/config"
	"habitbreak/internal/constants"
	"habitbreak/internal/controller"
	"habitbreak/internal/errors"
	"habitbreak/internal/logger"
	"habitbreak/internal/session"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool `help:"Enable debug logging."`

	Tui      cli.TuiCmd        `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Login    cli.LoginCmd      `cmd:"" help:"Log in to the backend."`
	Register cli.RegisterCmd   `cmd:"" help:"Create an account."`
	Logout   cli.LogoutCmd     `cmd:"" help:"Log out and forget the session token."`
	Auth     struct {
		Status cli.AuthStatusCmd `cmd:"" help:"Show session status." default:"1"`
	} `cmd:"" help:"Inspect the session."`
	Checkin cli.CheckinCmd `cmd:"" help:"Record today's check-in."`
	Journal cli.JournalCmd `cmd:"" help:"Log and review cravings and triggers."`
	Goal    cli.GoalCmd    `cmd:"" help:"Manage goals."`
	Tips    cli.TipsCmd    `cmd:"" help:"Show tips for the selected habit."`
	Streak  cli.StreakCmd  `cmd:"" help:"Show the streak snapshot."`
	Metrics cli.MetricsCmd `cmd:"" help:"Show check-in metrics."`
	Habit   cli.HabitCmd   `cmd:"" help:"Select the habit to focus on."`
	Refresh cli.RefreshCmd `cmd:"" help:"Re-fetch all views."`
	Reset   cli.ResetCmd   `cmd:"" help:"Password reset flow."`
	Verify  cli.VerifyCmd  `cmd:"" help:"Email verification flow."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Terminal companion for the Habit Breaker habit tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		errors.Fatal(err)
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	if err := cfg.EnsureConfigDir(); err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		errors.Fatal(err)
	}

	store, err := session.NewStore(cfg.ConfigDir)
	if err != nil {
		errors.Fatal(err)
	}

	// The cache is best-effort: without it everything still works, views
	// just start empty.
	var snaps *cache.Store
	if s, err := cache.NewStore(filepath.Join(cfg.ConfigDir, constants.CacheFileName)); err != nil {
		logger.Warn("Snapshot cache unavailable", "error", err)
	} else {
		snaps = s
		defer snaps.Close()
	}

	ctrl := controller.New(cfg.BackendURL, store, snaps,
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))

	appCtx := &cli.Context{
		Config:     cfg,
		Controller: ctrl,
		Session:    store,
	}

	if err := ctx.Run(appCtx); err != nil {
		errors.Fatal(err)
	}
}
