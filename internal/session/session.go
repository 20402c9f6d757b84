// Package session holds the client-side state of one QuizNova game: the
// phase machine, the countdown, and the rejoin protocol. It talks to the
// server through a Sender and reports every state change through a Sink;
// it never touches the terminal itself.
package session

import "github.com/quiznova/tui/internal/client"

// Phase is the current state of the session machine.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseRejoining
	PhaseIdle
	PhaseLobby
	PhaseActiveQuestion
	PhaseAnswerRevealed
	PhaseFinished
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseRejoining:
		return "rejoining"
	case PhaseIdle:
		return "idle"
	case PhaseLobby:
		return "lobby"
	case PhaseActiveQuestion:
		return "question"
	case PhaseAnswerRevealed:
		return "revealed"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Role is the user's part in the game, fixed once the session is joined.
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RolePlayer
)

// Identity is the durable part of a session, enough to rejoin a game
// after a reload or connectivity gap.
type Identity struct {
	PlayerName string
	IsHost     bool
	GamePin    string
}

// ActiveQuestion is the question currently on screen.
type ActiveQuestion struct {
	Number    int
	Total     int
	Prompt    string
	Options   []string
	TimeLimit int
}

// Feedback is the last per-player correctness/score event. Transient,
// overwritten on each answer_received.
type Feedback struct {
	PlayerName string
	IsCorrect  bool
	Score      int
}

// Notice is one state-change notification for the presentation sink.
// Every notice carries the full current snapshot, so a sink that misses
// one is made whole by the next.
type Notice struct {
	Phase         Phase
	Role          Role
	GamePin       string
	PlayerName    string
	Roster        []client.Player
	Question      *ActiveQuestion
	Remaining     int
	Answered      bool
	QuestionCount int
	Feedback      *Feedback
	FinalScores   map[string]int
	Err           string
}

// Sink receives state-change notifications. It is purely reactive; the
// machine never consults it for protocol decisions.
type Sink interface {
	Notify(Notice)
}

// Sender carries protocol events to the server.
type Sender interface {
	Emit(event string, payload any) error
}

// IdentityStore persists session identity across restarts. A nil store
// degrades rejoin to a no-op.
type IdentityStore interface {
	Load() (Identity, bool, error)
	Save(Identity) error
	Clear() error
}
