// Package setup renders the entry screens: role selection and the
// create/join forms.
package setup

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/theme"
)

// Mode selects which entry screen is showing.
type Mode int

const (
	ModeMenu Mode = iota
	ModeCreate
	ModeJoin
)

const (
	fieldName = 0
	fieldPin  = 1
)

// Model holds the setup screen state.
type Model struct {
	Mode  Mode
	Width int

	inputs []textinput.Model
	focus  int
}

// New creates a setup screen in menu mode.
func New() Model {
	name := textinput.New()
	name.Placeholder = "your name"
	name.CharLimit = 24
	name.Width = 24

	pin := textinput.New()
	pin.Placeholder = "game pin"
	pin.CharLimit = 8
	pin.Width = 24

	return Model{inputs: []textinput.Model{name, pin}}
}

// StartCreate switches to the host-name form.
func (m *Model) StartCreate() tea.Cmd {
	m.Mode = ModeCreate
	m.focus = fieldName
	return m.refocus()
}

// StartJoin switches to the name+pin form.
func (m *Model) StartJoin() tea.Cmd {
	m.Mode = ModeJoin
	m.focus = fieldName
	return m.refocus()
}

// ToMenu returns to role selection.
func (m *Model) ToMenu() {
	m.Mode = ModeMenu
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// NextField moves focus to the next input (join form only).
func (m *Model) NextField() tea.Cmd {
	if m.Mode != ModeJoin {
		return nil
	}
	m.focus = (m.focus + 1) % 2
	return m.refocus()
}

func (m *Model) refocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// Update forwards input events to the focused field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.Mode == ModeMenu {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// Values returns the trimmed form contents.
func (m Model) Values() (name, pin string) {
	return trimmed(m.inputs[fieldName].Value()), trimmed(m.inputs[fieldPin].Value())
}

// View renders the current entry screen.
func (m Model) View() string {
	switch m.Mode {
	case ModeCreate:
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.StyleHeader.Render("HOST A GAME"),
			"",
			"Name: "+m.inputs[fieldName].View(),
			"",
			theme.StyleDimmed.Render("enter:create  esc:back"),
		)
	case ModeJoin:
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.StyleHeader.Render("JOIN A GAME"),
			"",
			"Name: "+m.inputs[fieldName].View(),
			"Pin:  "+m.inputs[fieldPin].View(),
			"",
			theme.StyleDimmed.Render("tab:next field  enter:join  esc:back"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("QUIZNOVA"),
		"",
		"  "+theme.StyleAccent.Render("h")+"  host a new game",
		"  "+theme.StyleAccent.Render("j")+"  join with a pin",
		"",
		theme.StyleDimmed.Render("?:help  q:quit"),
	)
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}
