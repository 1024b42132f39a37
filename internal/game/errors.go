package game

import "errors"

var (
	ErrValidation          = errors.New("missing required field")
	ErrSessionNotFound     = errors.New("invalid session code")
	ErrAlreadyActive       = errors.New("game in progress")
	ErrRoundOver           = errors.New("game already finished")
	ErrInsufficientPlayers = errors.New("not enough players")
	ErrAttemptsExhausted   = errors.New("no attempts left")
	ErrNoActiveGame        = errors.New("no active game")
	ErrPersistence         = errors.New("persistence failure")
)

// Texts sent to clients.
const (
	msgInvalidCode     = "Invalid session code"
	msgInProgress      = "Game in progress"
	msgFinished        = "Game already finished"
	msgNeedPlayers     = "Need at least %d players"
	msgNoActiveGame    = "No active game."
	msgNoAttempts      = "No more attempts left!"
	msgWrongAnswer     = "Wrong answer, try again!"
	msgTimeout         = "Time's up! No one guessed correctly."
	msgServerError     = "Server error, please try again"
	msgUsernameMissing = "Username required"
	msgCodeMissing     = "Session code required"
	msgQuestionMissing = "Question and answer required"
)
