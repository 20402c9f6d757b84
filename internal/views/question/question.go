// Package question renders the active question round: prompt, answer
// options, the countdown bar, and per-answer feedback.
package question

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/session"
	"github.com/quiznova/tui/internal/theme"
)

// Model holds the question view state.
type Model struct {
	Width     int
	Question  *session.ActiveQuestion
	Remaining int
	Selected  int
	Answered  bool
	Revealed  bool
	IsHost    bool
	Feedback  *session.Feedback

	bar progress.Model
}

// New creates a question view.
func New() Model {
	return Model{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// View renders the round.
func (m Model) View() string {
	if m.Question == nil {
		return theme.StyleDimmed.Render("Waiting for the first question...")
	}
	q := m.Question

	var lines []string
	lines = append(lines, theme.StyleHeader.Render(
		fmt.Sprintf("Question %d/%d", q.Number, q.Total)))
	lines = append(lines, "")
	lines = append(lines, q.Prompt)
	lines = append(lines, "")

	for i, opt := range q.Options {
		style := lipgloss.NewStyle().Foreground(theme.OptionColor(i))
		label := fmt.Sprintf("  %d. %s", i+1, opt)
		switch {
		case m.Answered && i == m.Selected:
			lines = append(lines, theme.StyleSelected.Render("▸"+label[1:]))
		case !m.Answered && i == m.Selected:
			lines = append(lines, style.Bold(true).Render("▸"+label[1:]))
		default:
			lines = append(lines, style.Render(label))
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.countdown())

	if m.Feedback != nil {
		lines = append(lines, "")
		lines = append(lines, feedbackLine(m.Feedback))
	}

	lines = append(lines, "")
	switch {
	case m.Answered:
		lines = append(lines, theme.StyleDimmed.Render("answer locked in"))
	case m.Revealed || m.Remaining <= 0:
		lines = append(lines, theme.StyleDimmed.Render("time is up"))
	default:
		lines = append(lines, theme.StyleDimmed.Render("1-4:answer  j/k:move  enter:submit"))
	}
	if m.IsHost {
		lines = append(lines, theme.StyleDimmed.Render("n:next question"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) countdown() string {
	limit := m.Question.TimeLimit
	if limit <= 0 {
		limit = 1
	}
	frac := float64(m.Remaining) / float64(limit)
	if frac < 0 {
		frac = 0
	}

	bar := m.bar
	width := m.Width - 10
	if width < 10 {
		width = 10
	}
	bar.Width = width

	secs := fmt.Sprintf(" %2ds", m.Remaining)
	if m.Remaining <= 3 {
		secs = theme.StyleError.Render(secs)
	}
	return bar.ViewAs(frac) + secs
}

func feedbackLine(f *session.Feedback) string {
	if f.IsCorrect {
		return lipgloss.NewStyle().Foreground(theme.ColorCorrect).Render(
			fmt.Sprintf("✓ %s answered correctly! score: %d", f.PlayerName, f.Score))
	}
	return lipgloss.NewStyle().Foreground(theme.ColorWrong).Render(
		fmt.Sprintf("✗ %s answered wrong", f.PlayerName))
}

// ClampSelected keeps the cursor within the option list.
func (m *Model) ClampSelected() {
	if m.Question == nil {
		m.Selected = 0
		return
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
	if n := len(m.Question.Options); m.Selected >= n {
		m.Selected = n - 1
	}
}
