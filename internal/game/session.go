package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"guesswhat/internal/events"
	"guesswhat/internal/rooms"
	"guesswhat/internal/store"
)

// Created is the result of CreateSession.
type Created struct {
	SessionCode string         `json:"sessionCode"`
	Master      *store.Player  `json:"master"`
	Session     *store.Session `json:"session"`
}

// CreateSession registers username as the master of a new session in the lobby.
func (e *Engine) CreateSession(ctx context.Context, username string) (*Created, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", ErrValidation)
	}

	code, err := rooms.NewCode(func(code string) (bool, error) {
		_, err := e.Store.FindSessionByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return nil, e.logFailure("allocating session code", err)
	}

	master, err := e.Store.CreatePlayer(ctx, username, code)
	if err != nil {
		return nil, e.logFailure("creating master", err)
	}
	session, err := e.Store.CreateSession(ctx, code, master.ID, []string{master.ID})
	if err != nil {
		return nil, e.logFailure("creating session", err)
	}

	e.Metrics.SessionCreated()
	log.Printf("[Engine] Created session %s for %s\n", code, username)
	return &Created{SessionCode: code, Master: master, Session: session}, nil
}

// Join adds a new player to a session still in the lobby and binds connID to it.
func (e *Engine) Join(ctx context.Context, connID, username, code string) error {
	username = strings.TrimSpace(username)
	code = NormalizeCode(code)
	if username == "" {
		e.sendError(connID, msgUsernameMissing)
		return fmt.Errorf("%w: username", ErrValidation)
	}
	if code == "" {
		e.sendError(connID, msgCodeMissing)
		return fmt.Errorf("%w: session code", ErrValidation)
	}

	unlock := e.Registry.Lock(code)
	defer unlock()

	session, err := e.Store.FindSessionByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		e.sendError(connID, msgInvalidCode)
		return ErrSessionNotFound
	}
	if err != nil {
		return e.failed(connID, "finding session", err)
	}
	if session.IsActive {
		e.sendError(connID, msgInProgress)
		return ErrAlreadyActive
	}

	player, err := e.Store.CreatePlayer(ctx, username, code)
	if err != nil {
		return e.failed(connID, "creating player", err)
	}
	session.Players = append(session.Players, player.ID)
	if err := e.Store.SaveSession(ctx, session); err != nil {
		return e.failed(connID, "saving session", err)
	}

	e.Gateway.JoinChannel(connID, code)
	e.bind(connID, Binding{PlayerID: player.ID, SessionCode: code})

	players, err := e.Store.FindPlayersBySession(ctx, code)
	if err != nil {
		return e.failed(connID, "listing players", err)
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Username)
	}
	e.toRoom(code, events.PlayerList, names)
	return nil
}

// Start opens the round for a session with at least MinPlayers players.
// An unknown code is ignored without telling the caller.
func (e *Engine) Start(ctx context.Context, connID, code, question, answer string) error {
	code = NormalizeCode(code)

	unlock := e.Registry.Lock(code)
	defer unlock()

	session, err := e.Store.FindSessionByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return e.failed(connID, "finding session", err)
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		e.sendError(connID, msgQuestionMissing)
		return fmt.Errorf("%w: question and answer", ErrValidation)
	}

	e.Gateway.JoinChannel(connID, code)

	if session.IsActive || e.Registry.Get(code) != nil {
		e.sendError(connID, msgInProgress)
		return ErrAlreadyActive
	}
	if session.StartTime != nil {
		e.sendError(connID, msgFinished)
		return ErrRoundOver
	}
	if len(session.Players) < e.Config.MinPlayers {
		e.toRoom(code, events.Error, events.ErrorPayload{Message: fmt.Sprintf(msgNeedPlayers, e.Config.MinPlayers)})
		return ErrInsufficientPlayers
	}

	now := e.Clock.Now()
	session.Question = question
	session.Answer = answer
	session.IsActive = true
	session.StartTime = &now
	if err := e.Store.SaveSession(ctx, session); err != nil {
		return e.failed(connID, "saving session", err)
	}

	rt := rooms.NewRuntime(code, question, answer, e.Config.RoundDuration, now)
	stop, err := e.Sched.Every(e.Config.TickInterval, "tick:"+code, func() {
		if err := e.Tick(context.Background(), code); err != nil {
			log.Printf("[Engine] Tick %s error: %v\n", code, err)
		}
	})
	if err != nil {
		session.IsActive = false
		session.StartTime = nil
		if saveErr := e.Store.SaveSession(ctx, session); saveErr != nil {
			log.Printf("[Engine] Reverting session %s: %v\n", code, saveErr)
		}
		e.sendError(connID, msgServerError)
		return fmt.Errorf("starting timer for %s: %w", code, err)
	}
	rt.SetStop(stop)
	e.Registry.Put(code, rt)

	e.Metrics.GameStarted()
	log.Printf("[Engine] Started round in %s with %d players\n", code, len(session.Players))
	e.toRoom(code, events.GameStarted, events.GameStartedPayload{Question: question})
	return nil
}

// NormalizeCode trims and upper-cases a user-typed session code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (e *Engine) toRoom(code, event string, payload any) {
	if err := e.Gateway.EmitToChannel(code, event, payload); err != nil {
		log.Printf("[Engine] Emit %s to %s: %v\n", event, code, err)
	}
}

func (e *Engine) toConn(connID, event string, payload any) {
	if err := e.Gateway.EmitToConnection(connID, event, payload); err != nil {
		log.Printf("[Engine] Emit %s to conn %s: %v\n", event, connID, err)
	}
}

func (e *Engine) sendError(connID, text string) {
	e.toConn(connID, events.Error, events.ErrorPayload{Message: text})
}

func (e *Engine) sendMessage(connID, text string) {
	e.toConn(connID, events.Message, events.MessagePayload{Text: text})
}

func (e *Engine) logFailure(op string, err error) error {
	log.Printf("[Engine] %s: %v\n", op, err)
	return persistence(op, err)
}

// failed reports a storage error privately to the connection.
func (e *Engine) failed(connID, op string, err error) error {
	e.sendError(connID, msgServerError)
	return e.logFailure(op, err)
}
