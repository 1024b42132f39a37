// Package events names the messages exchanged with clients and their payloads.
package events

import "guesswhat/internal/store"

// Inbound events.
const (
	JoinSession = "join-session"
	StartGame   = "start-game"
	Guess       = "guess"
)

// Outbound events.
const (
	PlayerList  = "player-list"
	GameStarted = "game-started"
	Timer       = "timer"
	GameEnded   = "game-ended"
	Error       = "error"
	Message     = "message"
)

type JoinSessionPayload struct {
	Username    string `json:"username"`
	SessionCode string `json:"sessionCode"`
}

type StartGamePayload struct {
	SessionCode string `json:"sessionCode"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

type GuessPayload struct {
	Guess string `json:"guess"`
}

type GameStartedPayload struct {
	Question string `json:"question"`
}

type TimerPayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// GameEndedPayload has a nil Winner when the round timed out.
type GameEndedPayload struct {
	Winner  *string         `json:"winner"`
	Answer  string          `json:"answer"`
	Message string          `json:"message"`
	Scores  []*store.Player `json:"scores,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type MessagePayload struct {
	Text string `json:"text"`
}
