package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Enter        key.Binding
	Tab          key.Binding
	Escape       key.Binding
	Quit         key.Binding
	Help         key.Binding
	Host         key.Binding
	Join         key.Binding
	AddQuestion  key.Binding
	StartGame    key.Binding
	NextQuestion key.Binding
	Answer1      key.Binding
	Answer2      key.Binding
	Answer3      key.Binding
	Answer4      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev option"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next option"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Host: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "host a game"),
		),
		Join: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "join a game"),
		),
		AddQuestion: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add question"),
		),
		StartGame: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start game"),
		),
		NextQuestion: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next question"),
		),
		Answer1: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "answer 1")),
		Answer2: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "answer 2")),
		Answer3: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "answer 3")),
		Answer4: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "answer 4")),
	}
}
