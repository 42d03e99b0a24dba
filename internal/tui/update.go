package tui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"habitbreak/internal/constants"
	"habitbreak/internal/controller"
	"habitbreak/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case syncDoneMsg:
		m.busy = false
		m.clampGoalCursor()
		return m, nil
	}

	switch m.state {
	case constants.StateAuth:
		return m.updateAuthForm(msg)
	case constants.StateJournalForm:
		return m.updateJournalForm(msg)
	case constants.StateGoalForm:
		return m.updateGoalForm(msg)
	case constants.StateGoalEdit:
		return m.updateGoalEditForm(msg)
	}

	return m.updateDashboard(msg)
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	st := m.ctrl.Snapshot()

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(keyMsg, m.keys.Refresh):
		m.busy = true
		return m, m.syncCmd(m.ctrl.LoadAll)

	case key.Matches(keyMsg, m.keys.CheckIn):
		m.busy = true
		return m, m.syncCmd(m.ctrl.CheckIn)

	case key.Matches(keyMsg, m.keys.CycleHabit):
		next := nextHabit(st.Habit)
		m.busy = true
		return m, m.syncCmd(func(ctx context.Context) error {
			return m.ctrl.HabitChanged(ctx, next)
		})

	case key.Matches(keyMsg, m.keys.CycleWindow):
		next := nextWindow(st.Window)
		m.busy = true
		return m, m.syncCmd(func(ctx context.Context) error {
			return m.ctrl.WindowChanged(ctx, next)
		})

	case key.Matches(keyMsg, m.keys.Journal):
		m.journalForm = &JournalFormModel{
			Note:      st.JournalDraft.Note,
			Intensity: strconv.Itoa(st.JournalDraft.Intensity),
			Feeling:   st.JournalDraft.Feeling,
		}
		m.form = newJournalForm(m.journalForm)
		m.state = constants.StateJournalForm
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Goal):
		m.goalForm = &GoalFormModel{
			Title:      st.GoalDraft.Title,
			TargetDays: st.GoalDraft.TargetDays,
		}
		m.form = newGoalForm(m.goalForm)
		m.state = constants.StateGoalForm
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.EditGoal):
		goal, ok := m.selectedGoal(st)
		if !ok {
			return m, nil
		}
		m.ctrl.StartEditGoal(goal.ID)
		edit := m.ctrl.Snapshot().GoalEdit
		m.editingGoal = goal.ID
		m.goalEditForm = &GoalEditFormModel{
			Title:         edit.Title,
			TargetDays:    edit.TargetDays,
			CompletedDate: edit.CompletedDate,
		}
		m.form = newGoalEditForm(m.goalEditForm)
		m.state = constants.StateGoalEdit
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.DoneGoal):
		goal, ok := m.selectedGoal(st)
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.syncCmd(func(ctx context.Context) error {
			return m.ctrl.MarkGoalDoneToday(ctx, goal.ID)
		})

	case key.Matches(keyMsg, m.keys.Login):
		if m.ctrl.HasSession() {
			return m, nil
		}
		m.authForm = &AuthFormModel{}
		m.form = newAuthForm(m.authForm)
		m.state = constants.StateAuth
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Logout):
		if err := m.ctrl.Logout(); err == nil {
			m.goalCursor = 0
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.goalCursor > 0 {
			m.goalCursor--
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Down):
		if m.goalCursor < len(st.Goals)-1 {
			m.goalCursor++
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateAuthForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = constants.StateDashboard
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		fm := m.authForm
		m.state = constants.StateDashboard
		m.busy = true
		if fm.Register {
			return m, m.syncCmd(func(ctx context.Context) error {
				return m.ctrl.Register(ctx, fm.Email, fm.Password, fm.DisplayName)
			})
		}
		return m, m.syncCmd(func(ctx context.Context) error {
			return m.ctrl.Login(ctx, fm.Email, fm.Password)
		})
	case huh.StateAborted:
		m.state = constants.StateDashboard
	}
	return m, cmd
}

func (m Model) updateJournalForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		// Keep the draft so the user can resume later.
		m.saveJournalDraft()
		m.state = constants.StateDashboard
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saveJournalDraft()
		m.state = constants.StateDashboard
		m.busy = true
		return m, m.syncCmd(m.ctrl.SubmitJournal)
	case huh.StateAborted:
		m.saveJournalDraft()
		m.state = constants.StateDashboard
	}
	return m, cmd
}

func (m Model) saveJournalDraft() {
	intensity, err := strconv.Atoi(m.journalForm.Intensity)
	if err != nil {
		intensity = 5
	}
	m.ctrl.SetJournalDraft(models.JournalDraft{
		Note:      m.journalForm.Note,
		Intensity: intensity,
		Feeling:   m.journalForm.Feeling,
	})
}

func (m Model) updateGoalForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.saveGoalDraft()
		m.state = constants.StateDashboard
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saveGoalDraft()
		m.state = constants.StateDashboard
		m.busy = true
		return m, m.syncCmd(m.ctrl.SubmitGoal)
	case huh.StateAborted:
		m.saveGoalDraft()
		m.state = constants.StateDashboard
	}
	return m, cmd
}

func (m Model) saveGoalDraft() {
	m.ctrl.SetGoalDraft(models.GoalDraft{
		Title:      m.goalForm.Title,
		TargetDays: m.goalForm.TargetDays,
	})
}

func (m Model) updateGoalEditForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		// Cancel returns to viewing with no server call.
		m.ctrl.CancelEditGoal()
		m.editingGoal = ""
		m.state = constants.StateDashboard
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.ctrl.SetGoalEdit(controller.GoalEditDraft{
			Title:         m.goalEditForm.Title,
			TargetDays:    m.goalEditForm.TargetDays,
			CompletedDate: m.goalEditForm.CompletedDate,
		})
		m.editingGoal = ""
		m.state = constants.StateDashboard
		m.busy = true
		return m, m.syncCmd(m.ctrl.SaveGoalEdit)
	case huh.StateAborted:
		m.ctrl.CancelEditGoal()
		m.editingGoal = ""
		m.state = constants.StateDashboard
	}
	return m, cmd
}

func (m Model) selectedGoal(st controller.State) (models.Goal, bool) {
	if len(st.Goals) == 0 || m.goalCursor >= len(st.Goals) {
		return models.Goal{}, false
	}
	return st.Goals[m.goalCursor], true
}

func (m *Model) clampGoalCursor() {
	goals := m.ctrl.Snapshot().Goals
	if m.goalCursor >= len(goals) {
		m.goalCursor = len(goals) - 1
	}
	if m.goalCursor < 0 {
		m.goalCursor = 0
	}
}

func nextHabit(current string) string {
	for i, h := range constants.HabitOptions {
		if h == current {
			return constants.HabitOptions[(i+1)%len(constants.HabitOptions)]
		}
	}
	return constants.HabitGeneral
}

func nextWindow(current int) int {
	for i, w := range constants.MetricsWindows {
		if w == current {
			return constants.MetricsWindows[(i+1)%len(constants.MetricsWindows)]
		}
	}
	return constants.MetricsWindows[0]
}
