// Package theme provides the Lip Gloss color palette and reusable styles
// for the QuizNova TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Answer option colors, one per slot like the classic quiz button grid.
var (
	ColorOption1 = lipgloss.Color("#ef4444")
	ColorOption2 = lipgloss.Color("#3b82f6")
	ColorOption3 = lipgloss.Color("#eab308")
	ColorOption4 = lipgloss.Color("#22c55e")
)

// Feedback colors.
var (
	ColorCorrect = lipgloss.Color("#16a34a")
	ColorWrong   = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorGold    = lipgloss.Color("#f59e0b")
	ColorSilver  = lipgloss.Color("#9ca3af")
	ColorBronze  = lipgloss.Color("#d97706")
)

// OptionColor returns the color for an answer slot.
func OptionColor(index int) lipgloss.Color {
	switch index {
	case 0:
		return ColorOption1
	case 1:
		return ColorOption2
	case 2:
		return ColorOption3
	case 3:
		return ColorOption4
	default:
		return ColorDimmed
	}
}

// RankColor returns the color for a leaderboard position (0-based).
func RankColor(rank int) lipgloss.Color {
	switch rank {
	case 0:
		return ColorGold
	case 1:
		return ColorSilver
	case 2:
		return ColorBronze
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleAccent = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleError = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)
)
