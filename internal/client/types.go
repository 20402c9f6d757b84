// Package client provides the WebSocket transport for the QuizNova server.
// Types mirror the server wire protocol without importing server packages.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names, client to server. Casing matches the server protocol.
const (
	EventCreateGame   = "create_game"
	EventJoinGame     = "join_game"
	EventRejoinGame   = "rejoin_game"
	EventAddQuestion  = "add_question"
	EventStartGame    = "start_game"
	EventSubmitAnswer = "submit_answer"
	EventNextQuestion = "next_question"
)

// Event names, server to client.
const (
	EventGameCreated      = "game_created"
	EventJoinSuccess      = "join_success"
	EventJoinError        = "join_error"
	EventRejoinError      = "rejoin_error"
	EventStartError       = "start_error"
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventQuestionAdded    = "question_added"
	EventGameStarted      = "game_started"
	EventNewQuestion      = "new_question"
	EventAnswerReceived   = "answer_received"
	EventGameFinished     = "game_finished"
	EventHostDisconnected = "host_disconnected"
)

// Envelope is the frame carrying every event in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- Outbound payloads ---

// CreateGamePayload asks the server to open a new game.
type CreateGamePayload struct {
	HostName string `json:"host_name"`
}

// JoinGamePayload asks to join an open game by pin.
type JoinGamePayload struct {
	GamePin    string `json:"game_pin"`
	PlayerName string `json:"player_name"`
}

// RejoinGamePayload re-attaches a client to an in-progress game after a
// connectivity gap, using the identity saved in the session store.
type RejoinGamePayload struct {
	GamePin    string `json:"game_pin"`
	PlayerName string `json:"player_name"`
	IsHost     bool   `json:"is_host"`
}

// AddQuestionPayload submits one question to the game's question list.
type AddQuestionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	TimeLimit     int      `json:"time_limit"`
}

// SubmitAnswerPayload is a player's answer for the current question.
type SubmitAnswerPayload struct {
	Answer int `json:"answer"`
}

// --- Inbound events ---

// ServerEvent is the decoded form of every event the server can send.
// The set is sealed: the transport decodes and validates frames at the
// boundary, so the session machine only ever sees well-formed values.
type ServerEvent interface{ isServerEvent() }

// Player is one roster entry.
type Player struct {
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

// GameCreated acknowledges create_game and assigns the pin.
type GameCreated struct {
	GamePin string `json:"game_pin"`
}

// JoinSuccess acknowledges join_game.
type JoinSuccess struct {
	GamePin string `json:"game_pin"`
}

// JoinError rejects a join attempt.
type JoinError struct {
	Message string `json:"message"`
}

// RejoinError rejects a rejoin attempt (usually: game no longer exists).
type RejoinError struct {
	Message string `json:"message"`
}

// StartError rejects a start_game intent (e.g. no questions added yet).
type StartError struct {
	Message string `json:"message"`
}

// PlayerJoined carries the full roster after someone joins.
type PlayerJoined struct {
	Players []Player `json:"players"`
}

// PlayerLeft carries the full roster after someone leaves.
type PlayerLeft struct {
	Players []Player `json:"players"`
}

// QuestionAdded acknowledges add_question with the new question count.
type QuestionAdded struct {
	QuestionCount int `json:"question_count"`
}

// GameStarted is broadcast when the host starts the game. The first
// new_question follows immediately.
type GameStarted struct{}

// NewQuestion is broadcast once per question round.
type NewQuestion struct {
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"time_limit"`
}

// AnswerReceived is broadcast after any player submits an answer.
type AnswerReceived struct {
	PlayerName string `json:"player_name"`
	IsCorrect  bool   `json:"is_correct"`
	Score      int    `json:"score"`
}

// GameFinished carries the final leaderboard.
type GameFinished struct {
	FinalScores map[string]int `json:"final_scores"`
}

// HostDisconnected ends the session for everyone else.
type HostDisconnected struct {
	Message string `json:"message"`
}

func (GameCreated) isServerEvent()      {}
func (JoinSuccess) isServerEvent()      {}
func (JoinError) isServerEvent()        {}
func (RejoinError) isServerEvent()      {}
func (StartError) isServerEvent()       {}
func (PlayerJoined) isServerEvent()     {}
func (PlayerLeft) isServerEvent()       {}
func (QuestionAdded) isServerEvent()    {}
func (GameStarted) isServerEvent()      {}
func (NewQuestion) isServerEvent()      {}
func (AnswerReceived) isServerEvent()   {}
func (GameFinished) isServerEvent()     {}
func (HostDisconnected) isServerEvent() {}

// ErrUnknownEvent reports a frame whose event name is not part of the
// protocol. The transport drops such frames.
var ErrUnknownEvent = errors.New("unknown event")

// DecodeServerEvent turns a raw frame into a validated ServerEvent.
func DecodeServerEvent(env Envelope) (ServerEvent, error) {
	switch env.Event {
	case EventGameCreated:
		var p GameCreated
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		if p.GamePin == "" {
			return nil, fmt.Errorf("%s: empty game_pin", env.Event)
		}
		return p, nil
	case EventJoinSuccess:
		var p JoinSuccess
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		if p.GamePin == "" {
			return nil, fmt.Errorf("%s: empty game_pin", env.Event)
		}
		return p, nil
	case EventJoinError:
		var p JoinError
		return p, decode(env, &p)
	case EventRejoinError:
		var p RejoinError
		return p, decode(env, &p)
	case EventStartError:
		var p StartError
		return p, decode(env, &p)
	case EventPlayerJoined:
		var p PlayerJoined
		return p, decode(env, &p)
	case EventPlayerLeft:
		var p PlayerLeft
		return p, decode(env, &p)
	case EventQuestionAdded:
		var p QuestionAdded
		return p, decode(env, &p)
	case EventGameStarted:
		return GameStarted{}, nil
	case EventNewQuestion:
		var p NewQuestion
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		if p.QuestionNumber < 1 || len(p.Options) == 0 || p.TimeLimit <= 0 {
			return nil, fmt.Errorf("%s: malformed payload", env.Event)
		}
		return p, nil
	case EventAnswerReceived:
		var p AnswerReceived
		return p, decode(env, &p)
	case EventGameFinished:
		var p GameFinished
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		if p.FinalScores == nil {
			p.FinalScores = map[string]int{}
		}
		return p, nil
	case EventHostDisconnected:
		var p HostDisconnected
		return p, decode(env, &p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s: %w", env.Event, err)
	}
	return nil
}
