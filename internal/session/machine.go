package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quiznova/tui/internal/client"
)

const defaultRejoinWait = 5 * time.Second

// ErrRejected reports an intent the machine refused before any network
// send. The sink has already been notified; callers may ignore it.
var ErrRejected = errors.New("intent rejected")

// Config wires a Machine to its collaborators.
type Config struct {
	Sender Sender
	Sink   Sink
	Store  IdentityStore // optional

	// RejoinWait bounds how long a rejoin attempt may dangle before it
	// is surfaced as a terminal disconnect. Zero means the default.
	RejoinWait time.Duration

	// TickInterval is the countdown resolution. Zero means one second.
	TickInterval time.Duration
}

// Machine is the session state machine. All transitions run as short
// handlers under one mutex; the countdown ticker is the only other
// goroutine that touches state, and a generation counter keeps a stale
// ticker from firing into a newer question.
type Machine struct {
	sender     Sender
	sink       Sink
	store      IdentityStore
	rejoinWait time.Duration
	tick       time.Duration

	mu            sync.Mutex
	phase         Phase
	role          Role
	pin           string
	name          string
	roster        []client.Player
	question      *ActiveQuestion
	remaining     int
	answered      bool
	questionCount int
	feedback      *Feedback
	finalScores   map[string]int

	// pending identity between a create/join intent and its ack
	pendingName string
	pendingHost bool

	timerGen  int
	rejoinGen int
}

// New creates a Machine in the Disconnected phase.
func New(cfg Config) *Machine {
	m := &Machine{
		sender:     cfg.Sender,
		sink:       cfg.Sink,
		store:      cfg.Store,
		rejoinWait: cfg.RejoinWait,
		tick:       cfg.TickInterval,
		phase:      PhaseDisconnected,
	}
	if m.rejoinWait <= 0 {
		m.rejoinWait = defaultRejoinWait
	}
	if m.tick <= 0 {
		m.tick = time.Second
	}
	return m
}

// Connected handles the transport's connected/reconnected signal. With a
// stored or in-memory session identity it starts the rejoin protocol;
// otherwise the machine settles in Idle.
func (m *Machine) Connected() {
	m.mu.Lock()
	ident, ok := m.identityLocked()
	if !ok {
		m.phase = PhaseIdle
		n := m.noticeLocked()
		m.mu.Unlock()
		m.sink.Notify(n)
		return
	}

	m.pin = ident.GamePin
	m.name = ident.PlayerName
	m.role = RolePlayer
	if ident.IsHost {
		m.role = RoleHost
	}
	m.phase = PhaseRejoining
	m.armRejoinDeadlineLocked()
	n := m.noticeLocked()
	m.mu.Unlock()

	m.sink.Notify(n)
	m.sender.Emit(client.EventRejoinGame, client.RejoinGamePayload{
		GamePin:    ident.GamePin,
		PlayerName: ident.PlayerName,
		IsHost:     ident.IsHost,
	})
}

// Disconnected handles the transport dropping. The countdown is
// cancelled and the phase falls back to Disconnected; identity is kept
// so the next Connected can rejoin.
func (m *Machine) Disconnected() {
	m.mu.Lock()
	m.timerGen++
	m.rejoinGen++
	m.phase = PhaseDisconnected
	m.question = nil
	m.remaining = 0
	n := m.noticeLocked()
	m.mu.Unlock()
	m.sink.Notify(n)
}

// identityLocked returns the identity to rejoin with, preferring the
// in-memory session over the store.
func (m *Machine) identityLocked() (Identity, bool) {
	if m.pin != "" && m.name != "" {
		return Identity{PlayerName: m.name, IsHost: m.role == RoleHost, GamePin: m.pin}, true
	}
	if m.store == nil {
		return Identity{}, false
	}
	ident, ok, err := m.store.Load()
	if err != nil || !ok || ident.GamePin == "" || ident.PlayerName == "" {
		return Identity{}, false
	}
	return ident, true
}

// --- User intents ---

// CreateGame asks the server to open a new game with the caller as host.
// The phase stays Idle until game_created arrives.
func (m *Machine) CreateGame(name string) error {
	m.mu.Lock()
	if m.phase != PhaseIdle {
		return m.rejectLocked("cannot create a game right now")
	}
	if name == "" {
		return m.rejectLocked("enter a host name")
	}
	m.pendingName = name
	m.pendingHost = true
	m.mu.Unlock()
	return m.emit(client.EventCreateGame, client.CreateGamePayload{HostName: name})
}

// JoinGame asks to join an open game. The phase stays Idle until
// join_success or join_error arrives.
func (m *Machine) JoinGame(name, pin string) error {
	m.mu.Lock()
	if m.phase != PhaseIdle {
		return m.rejectLocked("cannot join a game right now")
	}
	if name == "" || pin == "" {
		return m.rejectLocked("enter both a game pin and a name")
	}
	m.pendingName = name
	m.pendingHost = false
	m.mu.Unlock()
	return m.emit(client.EventJoinGame, client.JoinGamePayload{GamePin: pin, PlayerName: name})
}

// AddQuestion submits one question to the game. Host only, lobby only.
func (m *Machine) AddQuestion(q client.AddQuestionPayload) error {
	m.mu.Lock()
	if m.phase != PhaseLobby || m.role != RoleHost {
		return m.rejectLocked("only the host can add questions in the lobby")
	}
	if err := validQuestion(q); err != nil {
		return m.rejectLocked(err.Error())
	}
	m.mu.Unlock()
	return m.emit(client.EventAddQuestion, q)
}

// StartGame starts the quiz. Host only.
func (m *Machine) StartGame() error {
	m.mu.Lock()
	if m.phase != PhaseLobby || m.role != RoleHost {
		return m.rejectLocked("only the host can start the game")
	}
	m.mu.Unlock()
	return m.emit(client.EventStartGame, nil)
}

// SubmitAnswer submits the player's pick for the current question.
// Exactly one submission is allowed per question, and none once the
// countdown has reached zero, even if the server window is still open.
func (m *Machine) SubmitAnswer(index int) error {
	m.mu.Lock()
	if m.phase != PhaseActiveQuestion || m.question == nil {
		return m.rejectLocked("no question is open")
	}
	if m.answered {
		return m.rejectLocked("answer already submitted")
	}
	if m.remaining <= 0 {
		return m.rejectLocked("time is up")
	}
	if index < 0 || index >= len(m.question.Options) {
		return m.rejectLocked("invalid option")
	}
	m.answered = true
	m.phase = PhaseAnswerRevealed
	n := m.noticeLocked()
	m.mu.Unlock()
	m.sink.Notify(n)
	return m.emit(client.EventSubmitAnswer, client.SubmitAnswerPayload{Answer: index})
}

// NextQuestion advances the game to the next question. Host only.
func (m *Machine) NextQuestion() error {
	m.mu.Lock()
	if m.role != RoleHost || (m.phase != PhaseActiveQuestion && m.phase != PhaseAnswerRevealed) {
		return m.rejectLocked("only the host can advance the game")
	}
	m.mu.Unlock()
	return m.emit(client.EventNextQuestion, nil)
}

func validQuestion(q client.AddQuestionPayload) error {
	if q.Question == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) != 4 {
		return errors.New("a question needs exactly 4 options")
	}
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("options must not be empty")
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return errors.New("correct answer is out of range")
	}
	if q.TimeLimit <= 0 {
		return errors.New("time limit must be positive")
	}
	return nil
}

// rejectLocked surfaces a rejected intent: exactly one sink notification,
// no state change, no network send. Releases the lock.
func (m *Machine) rejectLocked(msg string) error {
	n := m.noticeLocked()
	n.Err = msg
	m.mu.Unlock()
	m.sink.Notify(n)
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

// emit forwards to the sender and surfaces delivery refusals (e.g. an
// answer sent while disconnected) to the sink.
func (m *Machine) emit(event string, payload any) error {
	if err := m.sender.Emit(event, payload); err != nil {
		m.mu.Lock()
		n := m.noticeLocked()
		n.Err = err.Error()
		m.mu.Unlock()
		m.sink.Notify(n)
		return err
	}
	return nil
}

// --- Inbound protocol events ---

// Apply runs one decoded server event through the transition table.
func (m *Machine) Apply(ev client.ServerEvent) {
	m.mu.Lock()
	switch ev := ev.(type) {
	case client.GameCreated:
		m.pin = ev.GamePin
		m.name = m.pendingName
		m.role = RoleHost
		m.phase = PhaseLobby
		m.persistLocked()

	case client.JoinSuccess:
		m.pin = ev.GamePin
		if m.phase == PhaseRejoining {
			m.rejoinGen++
		} else {
			m.name = m.pendingName
			m.role = RolePlayer
		}
		m.phase = PhaseLobby
		m.persistLocked()

	case client.JoinError:
		// Stay in the pre-attempt phase so the user may retry.
		n := m.noticeLocked()
		n.Err = ev.Message
		m.mu.Unlock()
		m.sink.Notify(n)
		return

	case client.StartError:
		n := m.noticeLocked()
		n.Err = ev.Message
		m.mu.Unlock()
		m.sink.Notify(n)
		return

	case client.RejoinError:
		m.rejoinGen++
		m.clearLocked()
		m.phase = PhaseIdle
		n := m.noticeLocked()
		n.Err = ev.Message
		m.mu.Unlock()
		m.sink.Notify(n)
		return

	case client.PlayerJoined:
		// Roster is replaced wholesale; the server is authoritative.
		m.roster = ev.Players
		if m.phase == PhaseRejoining {
			m.rejoinGen++
			m.phase = PhaseLobby
		}

	case client.PlayerLeft:
		m.roster = ev.Players

	case client.QuestionAdded:
		m.questionCount = ev.QuestionCount

	case client.GameStarted:
		if m.phase == PhaseRejoining {
			m.rejoinGen++
		}
		m.feedback = nil
		m.question = nil
		m.remaining = 0
		m.phase = PhaseActiveQuestion // awaiting the first new_question

	case client.NewQuestion:
		// Re-delivery of the current question must not restart the
		// countdown; only an index change does.
		if m.question != nil && m.question.Number == ev.QuestionNumber &&
			(m.phase == PhaseActiveQuestion || m.phase == PhaseAnswerRevealed) {
			m.mu.Unlock()
			return
		}
		if m.phase == PhaseRejoining {
			m.rejoinGen++
		}
		m.timerGen++
		m.question = &ActiveQuestion{
			Number:    ev.QuestionNumber,
			Total:     ev.TotalQuestions,
			Prompt:    ev.Question,
			Options:   ev.Options,
			TimeLimit: ev.TimeLimit,
		}
		m.remaining = ev.TimeLimit
		m.answered = false
		m.feedback = nil
		m.phase = PhaseActiveQuestion
		m.startCountdownLocked()

	case client.AnswerReceived:
		m.feedback = &Feedback{
			PlayerName: ev.PlayerName,
			IsCorrect:  ev.IsCorrect,
			Score:      ev.Score,
		}

	case client.GameFinished:
		m.timerGen++
		m.question = nil
		m.remaining = 0
		m.finalScores = ev.FinalScores
		m.phase = PhaseFinished

	case client.HostDisconnected:
		msg := ev.Message
		if msg == "" {
			msg = "Host disconnected. Game ended."
		}
		m.timerGen++
		m.rejoinGen++
		m.clearLocked()
		m.phase = PhaseDisconnected
		n := m.noticeLocked()
		n.Err = msg
		m.mu.Unlock()
		m.sink.Notify(n)
		return

	default:
		m.mu.Unlock()
		return
	}

	n := m.noticeLocked()
	m.mu.Unlock()
	m.sink.Notify(n)
}

// persistLocked saves session identity for the rejoin protocol. Best
// effort: a failed write only costs the resume hint.
func (m *Machine) persistLocked() {
	if m.store == nil {
		return
	}
	m.store.Save(Identity{
		PlayerName: m.name,
		IsHost:     m.role == RoleHost,
		GamePin:    m.pin,
	})
}

// clearLocked resets the session to empty and drops the stored identity.
func (m *Machine) clearLocked() {
	m.pin = ""
	m.name = ""
	m.role = RoleNone
	m.roster = nil
	m.question = nil
	m.remaining = 0
	m.answered = false
	m.questionCount = 0
	m.feedback = nil
	m.finalScores = nil
	m.pendingName = ""
	m.pendingHost = false
	if m.store != nil {
		m.store.Clear()
	}
}

// --- Countdown ---

// startCountdownLocked spawns the per-question ticker. The generation
// captured here goes stale the moment the question changes, the game
// finishes, the host disconnects, or the transport drops.
func (m *Machine) startCountdownLocked() {
	m.timerGen++
	gen := m.timerGen
	interval := m.tick
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m.mu.Lock()
			if gen != m.timerGen {
				m.mu.Unlock()
				return
			}
			m.remaining--
			done := m.remaining <= 0
			if done {
				m.remaining = 0
				m.timerGen++
				if m.phase == PhaseActiveQuestion {
					m.phase = PhaseAnswerRevealed
				}
			}
			n := m.noticeLocked()
			m.mu.Unlock()
			m.sink.Notify(n)
			if done {
				return
			}
		}
	}()
}

// armRejoinDeadlineLocked bounds how long Rejoining may dangle. On
// expiry the session is torn down with a terminal disconnect notice.
func (m *Machine) armRejoinDeadlineLocked() {
	m.rejoinGen++
	gen := m.rejoinGen
	time.AfterFunc(m.rejoinWait, func() {
		m.mu.Lock()
		if gen != m.rejoinGen || m.phase != PhaseRejoining {
			m.mu.Unlock()
			return
		}
		m.timerGen++
		m.clearLocked()
		m.phase = PhaseDisconnected
		n := m.noticeLocked()
		n.Err = "could not rejoin the game"
		m.mu.Unlock()
		m.sink.Notify(n)
	})
}

// --- Snapshots ---

// Snapshot returns the current state as a Notice without notifying.
func (m *Machine) Snapshot() Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.noticeLocked()
}

func (m *Machine) noticeLocked() Notice {
	n := Notice{
		Phase:         m.phase,
		Role:          m.role,
		GamePin:       m.pin,
		PlayerName:    m.name,
		Remaining:     m.remaining,
		Answered:      m.answered,
		QuestionCount: m.questionCount,
		FinalScores:   m.finalScores,
	}
	if len(m.roster) > 0 {
		n.Roster = make([]client.Player, len(m.roster))
		copy(n.Roster, m.roster)
	}
	if m.question != nil {
		q := *m.question
		n.Question = &q
	}
	if m.feedback != nil {
		f := *m.feedback
		n.Feedback = &f
	}
	return n
}
