package app

import "github.com/charmbracelet/glamour"

const helpMarkdown = `# QuizNova

## Getting in

| Key | Action |
|-----|--------|
| h | host a new game |
| j | join a game with a pin |
| tab | next form field |
| enter | submit a form |
| esc | back |

## Lobby (host)

| Key | Action |
|-----|--------|
| a | open the question editor |
| s | start the game |

## During a question

| Key | Action |
|-----|--------|
| 1-4 | answer immediately |
| j/k | move the cursor |
| enter | submit the highlighted option |
| n | next question (host) |

One answer per question. Once the countdown hits zero the question is
locked, even if the server would still take it.

If the connection drops mid-game, the client reconnects and rejoins
automatically with the identity saved on disk.
`

// renderHelp renders the help overlay once, falling back to the raw
// markdown if the renderer is unavailable.
func renderHelp(width int) string {
	if width <= 0 || width > 100 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
