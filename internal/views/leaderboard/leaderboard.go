// Package leaderboard renders the final scores.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/theme"
)

// Model holds the leaderboard view state.
type Model struct {
	Width  int
	Scores map[string]int
}

// View renders the final standings, highest score first.
func (m Model) View() string {
	var lines []string
	lines = append(lines, theme.StyleHeader.Render("🏆 FINAL SCORES"))
	lines = append(lines, "")

	type entry struct {
		name  string
		score int
	}
	entries := make([]entry, 0, len(m.Scores))
	for name, score := range m.Scores {
		entries = append(entries, entry{name, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})

	for i, e := range entries {
		style := lipgloss.NewStyle().Foreground(theme.RankColor(i))
		lines = append(lines, style.Render(
			fmt.Sprintf("  %d. %-20s %6d", i+1, e.name, e.score)))
	}
	if len(entries) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no scores recorded"))
	}

	lines = append(lines, "")
	lines = append(lines, theme.StyleDimmed.Render("q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
