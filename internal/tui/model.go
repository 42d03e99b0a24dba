package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"habitbreak/internal/constants"
	"habitbreak/internal/controller"
)

// AuthFormModel holds the login/register form fields.
type AuthFormModel struct {
	Register    bool
	Email       string
	Password    string
	DisplayName string
}

// JournalFormModel holds the craving-log form fields.
type JournalFormModel struct {
	Note      string
	Intensity string
	Feeling   string
}

// GoalFormModel holds the goal-creation form fields.
type GoalFormModel struct {
	Title      string
	TargetDays string
}

// GoalEditFormModel holds the per-row goal edit fields.
type GoalEditFormModel struct {
	Title         string
	TargetDays    string
	CompletedDate string
}

// syncDoneMsg signals that an async controller operation has settled; its
// outcome lives in the controller's error slot.
type syncDoneMsg struct{}

type Model struct {
	ctrl  *controller.Controller
	state constants.SessionState
	keys  KeyMap
	help  help.Model
	spin  spinner.Model

	form         *huh.Form
	authForm     *AuthFormModel
	journalForm  *JournalFormModel
	goalForm     *GoalFormModel
	goalEditForm *GoalEditFormModel
	editingGoal  string

	goalCursor int
	busy       bool
	quitting   bool
	width      int
	height     int
}

func NewModel(ctrl *controller.Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:  ctrl,
		state: constants.StateDashboard,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		spin:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.syncCmd(m.ctrl.TokenChanged))
}

// syncCmd runs a controller operation off the UI goroutine. Errors are not
// carried in the message: strict operations record their outcome in the
// shared error slot, which the view renders.
func (m Model) syncCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		_ = fn(ctx)
		return syncDoneMsg{}
	}
}
