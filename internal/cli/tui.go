package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"habitbreak/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(appCtx *Context) error {
	model := tui.NewModel(appCtx.Controller)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
