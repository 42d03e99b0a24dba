package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the dashboard.
type KeyMap struct {
	CheckIn     key.Binding
	Journal     key.Binding
	Goal        key.Binding
	EditGoal    key.Binding
	DoneGoal    key.Binding
	CycleHabit  key.Binding
	CycleWindow key.Binding
	Refresh     key.Binding
	Login       key.Binding
	Logout      key.Binding
	Up          key.Binding
	Down        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		CheckIn: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "check in today"),
		),
		Journal: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "log a craving"),
		),
		Goal: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "new goal"),
		),
		EditGoal: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit goal"),
		),
		DoneGoal: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "mark goal done"),
		),
		CycleHabit: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "switch habit"),
		),
		CycleWindow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "metrics window"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh all"),
		),
		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log in / register"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous goal"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next goal"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CheckIn, k.Journal, k.Goal, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CheckIn, k.Journal, k.Goal, k.EditGoal, k.DoneGoal},
		{k.CycleHabit, k.CycleWindow, k.Refresh, k.Up, k.Down},
		{k.Login, k.Logout, k.Help, k.Quit},
	}
}
