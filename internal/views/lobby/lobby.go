// Package lobby renders the pre-game waiting room: the pin, a join QR
// code, and the live roster.
package lobby

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/client"
	"github.com/quiznova/tui/internal/theme"
	qrcode "github.com/skip2/go-qrcode"
)

// Model holds the lobby view state.
type Model struct {
	Width         int
	GamePin       string
	IsHost        bool
	QuestionCount int
	Roster        []client.Player
}

// View renders the lobby.
func (m Model) View() string {
	var lines []string

	lines = append(lines, theme.StyleHeader.Render("LOBBY"))
	lines = append(lines, "")
	lines = append(lines, "Game pin: "+theme.StyleAccent.Render(m.GamePin))

	if qr := joinQR(m.GamePin); qr != "" {
		lines = append(lines, "")
		lines = append(lines, qr)
	}

	lines = append(lines, theme.StyleHeader.Render(fmt.Sprintf("Players (%d)", len(m.Roster))))
	for _, p := range m.Roster {
		entry := "  " + p.Name
		if p.IsHost {
			entry += theme.StyleAccent.Render(" ♛")
		}
		lines = append(lines, entry)
	}
	if len(m.Roster) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  waiting for players..."))
	}

	if m.IsHost {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Questions added: %d", m.QuestionCount))
		lines = append(lines, theme.StyleDimmed.Render("a:add question  s:start game"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// joinQR renders the pin as a small terminal QR code so players on
// phones can grab it from the host's screen.
func joinQR(pin string) string {
	if pin == "" {
		return ""
	}
	qr, err := qrcode.New(pin, qrcode.Low)
	if err != nil {
		return ""
	}
	return qr.ToSmallString(false)
}
