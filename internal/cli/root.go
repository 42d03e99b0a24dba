package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"habitbreak/internal/config"
	"habitbreak/internal/controller"
	"habitbreak/internal/session"
)

// Context carries the wired application services into every command.
type Context struct {
	Config     *config.Config
	Controller *controller.Controller
	Session    *session.Store
}

// opCtx returns the context commands run their requests under.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// promptPassword asks for a password without echoing it.
func promptPassword(title string) (string, error) {
	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&password),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return password, nil
}

// requireSession fails fast on commands that need a login.
func requireSession(ctx *Context) error {
	if !ctx.Controller.HasSession() {
		return fmt.Errorf("not logged in, run 'habitbreak login' first")
	}
	return nil
}
