// Package app owns the root Bubble Tea model. It is the presentation
// sink for the session machine and the source of user intents; every
// protocol decision stays in internal/session.
package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/quiznova/tui/internal/client"
	"github.com/quiznova/tui/internal/session"
	"github.com/quiznova/tui/internal/theme"
	"github.com/quiznova/tui/internal/views/editor"
	"github.com/quiznova/tui/internal/views/leaderboard"
	"github.com/quiznova/tui/internal/views/lobby"
	"github.com/quiznova/tui/internal/views/question"
	"github.com/quiznova/tui/internal/views/setup"
	"github.com/quiznova/tui/internal/views/status"
)

// Screen identifies which main view is showing.
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenLobby
	ScreenEditor
	ScreenQuestion
	ScreenLeaderboard
)

// NoticeMsg delivers one session state-change notification.
type NoticeMsg session.Notice

// NoticeChan adapts a channel into the machine's sink. Notices carry
// full snapshots, so dropping one under backpressure is safe: the next
// notice makes the view whole again.
type NoticeChan chan session.Notice

// Notify implements session.Sink.
func (c NoticeChan) Notify(n session.Notice) {
	select {
	case c <- n:
	default:
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	ws      *client.WSClient
	machine *session.Machine
	notices NoticeChan
	ctx     context.Context
	cancel  context.CancelFunc

	keys   KeyMap
	width  int
	height int

	screen Screen
	state  session.Notice
	errMsg string

	setup     setup.Model
	editor    editor.Model
	question  question.Model
	statusBar status.Model

	showHelp bool
	helpView string
}

// New creates the root model.
func New(ws *client.WSClient, machine *session.Machine, notices NoticeChan) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:        ws,
		machine:   machine,
		notices:   notices,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		setup:     setup.New(),
		editor:    editor.New(),
		question:  question.New(),
		statusBar: status.New(),
	}
}

// Init starts the WebSocket connection and the notice drain.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ws.Listen(m.ctx), waitNotice(m.notices))
}

// waitNotice blocks for the next machine notice. Re-armed after each
// NoticeMsg so countdown ticks keep flowing.
func waitNotice(ch NoticeChan) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg(n)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.setup.Width = msg.Width
		m.editor.Width = msg.Width
		m.question.Width = msg.Width
		m.helpView = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.statusBar.Connected = true
		m.machine.Connected()
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.statusBar.Connected = false
		m.machine.Disconnected()
		return m, m.ws.Listen(m.ctx)

	case client.WSEventMsg:
		m.machine.Apply(msg.Event)
		return m, m.ws.ReadLoop(m.ctx)

	case NoticeMsg:
		return m.handleNotice(session.Notice(msg))
	}

	return m, nil
}

func (m Model) handleNotice(n session.Notice) (tea.Model, tea.Cmd) {
	prev := m.state
	m.state = n
	m.statusBar.Rejoining = n.Phase == session.PhaseRejoining
	m.statusBar.GamePin = n.GamePin
	m.statusBar.PlayerName = n.PlayerName
	m.statusBar.IsHost = n.Role == session.RoleHost

	if n.Err != "" {
		m.errMsg = n.Err
	} else if n.Phase != prev.Phase {
		m.errMsg = ""
	}

	switch n.Phase {
	case session.PhaseIdle, session.PhaseDisconnected:
		m.screen = ScreenSetup
	case session.PhaseLobby:
		if m.screen != ScreenEditor {
			m.screen = ScreenLobby
		}
	case session.PhaseActiveQuestion, session.PhaseAnswerRevealed:
		m.screen = ScreenQuestion
		if changedQuestion(prev.Question, n.Question) {
			m.question.Selected = 0
		}
	case session.PhaseFinished:
		m.screen = ScreenLeaderboard
	}

	return m, waitNotice(m.notices)
}

func changedQuestion(old, new *session.ActiveQuestion) bool {
	if new == nil {
		return false
	}
	return old == nil || old.Number != new.Number
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch m.screen {
	case ScreenSetup:
		return m.handleSetupKey(msg)
	case ScreenLobby:
		return m.handleLobbyKey(msg)
	case ScreenEditor:
		return m.handleEditorKey(msg)
	case ScreenQuestion:
		return m.handleQuestionKey(msg)
	case ScreenLeaderboard:
		if key.Matches(msg, m.keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.setup.Mode == setup.ModeMenu {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			return m.openHelp()
		case key.Matches(msg, m.keys.Host):
			return m, m.setup.StartCreate()
		case key.Matches(msg, m.keys.Join):
			return m, m.setup.StartJoin()
		}
		return m, nil
	}

	// A form is open: printable keys belong to the text inputs.
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.setup.ToMenu()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m, m.setup.NextField()
	case key.Matches(msg, m.keys.Enter):
		name, pin := m.setup.Values()
		if m.setup.Mode == setup.ModeCreate {
			m.machine.CreateGame(name)
		} else {
			m.machine.JoinGame(name, pin)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.setup, cmd = m.setup.Update(msg)
	return m, cmd
}

func (m Model) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m.openHelp()
	case key.Matches(msg, m.keys.AddQuestion):
		if m.state.Role == session.RoleHost {
			m.screen = ScreenEditor
			return m, m.editor.Reset()
		}
	case key.Matches(msg, m.keys.StartGame):
		m.machine.StartGame()
		return m, nil
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.screen = ScreenLobby
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m, m.editor.NextField()
	case key.Matches(msg, m.keys.Enter):
		p, err := m.editor.Payload()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		if err := m.machine.AddQuestion(p); err != nil {
			return m, nil
		}
		m.errMsg = ""
		return m, m.editor.Reset()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleQuestionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m.openHelp()
	case key.Matches(msg, m.keys.NextQuestion):
		m.machine.NextQuestion()
		return m, nil
	case key.Matches(msg, m.keys.Answer1):
		return m.submit(0)
	case key.Matches(msg, m.keys.Answer2):
		return m.submit(1)
	case key.Matches(msg, m.keys.Answer3):
		return m.submit(2)
	case key.Matches(msg, m.keys.Answer4):
		return m.submit(3)
	case key.Matches(msg, m.keys.Down):
		m.question.Selected++
		m.question.Question = m.state.Question
		m.question.ClampSelected()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.question.Selected--
		m.question.Question = m.state.Question
		m.question.ClampSelected()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m.submit(m.question.Selected)
	}
	return m, nil
}

func (m Model) submit(index int) (tea.Model, tea.Cmd) {
	if err := m.machine.SubmitAnswer(index); err == nil {
		m.question.Selected = index
	}
	return m, nil
}

func (m Model) openHelp() (tea.Model, tea.Cmd) {
	if m.helpView == "" {
		m.helpView = renderHelp(m.width)
	}
	m.showHelp = true
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return m.helpView
	}

	var body string
	switch m.screen {
	case ScreenSetup:
		body = m.setup.View()
	case ScreenLobby:
		body = lobby.Model{
			Width:         m.width,
			GamePin:       m.state.GamePin,
			IsHost:        m.state.Role == session.RoleHost,
			QuestionCount: m.state.QuestionCount,
			Roster:        m.state.Roster,
		}.View()
	case ScreenEditor:
		body = m.editor.View()
	case ScreenQuestion:
		q := m.question
		q.Question = m.state.Question
		q.Remaining = m.state.Remaining
		q.Answered = m.state.Answered
		q.Revealed = m.state.Phase == session.PhaseAnswerRevealed
		q.IsHost = m.state.Role == session.RoleHost
		q.Feedback = m.state.Feedback
		body = q.View()
	case ScreenLeaderboard:
		body = leaderboard.Model{Width: m.width, Scores: m.state.FinalScores}.View()
	}

	sections := []string{m.statusBar.View(), body}
	if m.errMsg != "" {
		sections = append(sections, theme.StyleError.Render("! "+m.errMsg))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
