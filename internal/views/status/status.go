package status

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected  bool
	Rejoining  bool
	GamePin    string
	PlayerName string
	IsHost     bool
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.Rejoining:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Rejoining...")
	case m.Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr

	if m.GamePin != "" {
		content += sep + "pin " + theme.StyleAccent.Render(m.GamePin)
	}
	if m.PlayerName != "" {
		who := m.PlayerName
		if m.IsHost {
			who += " (host)"
		}
		content += sep + who
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
