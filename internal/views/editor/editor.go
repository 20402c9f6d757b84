// Package editor renders the host's question form.
package editor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/client"
	"github.com/quiznova/tui/internal/theme"
)

const defaultTimeLimit = 10

const (
	fieldQuestion = iota
	fieldOption1
	fieldOption2
	fieldOption3
	fieldOption4
	fieldCorrect
	fieldTimeLimit
	numFields
)

// Model holds the question form state.
type Model struct {
	Width int

	inputs [numFields]textinput.Model
	focus  int
}

// New creates an empty question form.
func New() Model {
	var m Model
	mk := func(placeholder string, limit, width int) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		in.Width = width
		return in
	}
	m.inputs[fieldQuestion] = mk("question text", 120, 48)
	for i := 0; i < 4; i++ {
		m.inputs[fieldOption1+i] = mk("option "+strconv.Itoa(i+1), 60, 32)
	}
	m.inputs[fieldCorrect] = mk("correct option (1-4)", 1, 8)
	m.inputs[fieldTimeLimit] = mk("seconds (default 10)", 3, 8)
	return m
}

// Reset clears the form for the next question.
func (m *Model) Reset() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.focus = fieldQuestion
	return m.inputs[fieldQuestion].Focus()
}

// NextField moves focus down the form, wrapping at the end.
func (m *Model) NextField() tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + 1) % numFields
	return m.inputs[m.focus].Focus()
}

// Update forwards input events to the focused field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// Payload builds the add_question payload from the form, validating
// before anything is sent.
func (m Model) Payload() (client.AddQuestionPayload, error) {
	p := client.AddQuestionPayload{
		Question:  strings.TrimSpace(m.inputs[fieldQuestion].Value()),
		TimeLimit: defaultTimeLimit,
	}
	for i := 0; i < 4; i++ {
		p.Options = append(p.Options, strings.TrimSpace(m.inputs[fieldOption1+i].Value()))
	}

	correct := strings.TrimSpace(m.inputs[fieldCorrect].Value())
	n, err := strconv.Atoi(correct)
	if err != nil || n < 1 || n > 4 {
		return p, errors.New("correct option must be 1-4")
	}
	p.CorrectAnswer = n - 1

	if limit := strings.TrimSpace(m.inputs[fieldTimeLimit].Value()); limit != "" {
		secs, err := strconv.Atoi(limit)
		if err != nil || secs <= 0 {
			return p, errors.New("time limit must be a positive number of seconds")
		}
		p.TimeLimit = secs
	}

	return p, nil
}

// View renders the form.
func (m Model) View() string {
	labels := [numFields]string{
		"Question:", "Option 1:", "Option 2:", "Option 3:", "Option 4:",
		"Correct:", "Seconds:",
	}

	lines := []string{theme.StyleHeader.Render("ADD QUESTION"), ""}
	for i, in := range m.inputs {
		label := labels[i]
		if i == m.focus {
			label = theme.StyleSelected.Render(label)
		}
		lines = append(lines, label+" "+in.View())
	}
	lines = append(lines, "")
	lines = append(lines, theme.StyleDimmed.Render("tab:next field  enter:save question  esc:back to lobby"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
