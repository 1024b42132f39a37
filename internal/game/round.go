package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"guesswhat/internal/events"
	"guesswhat/internal/rooms"
)

// Tick advances the countdown of a running round by one second and ends the
// round when it reaches zero. It does nothing when no round is running.
func (e *Engine) Tick(ctx context.Context, code string) error {
	unlock := e.Registry.Lock(code)
	defer unlock()

	rt := e.Registry.Get(code)
	if rt == nil {
		return nil
	}

	rt.TimeLeft--
	e.toRoom(code, events.Timer, events.TimerPayload{SecondsRemaining: rt.TimeLeft})
	if rt.TimeLeft > 0 {
		return nil
	}

	e.finish(rt)
	e.Metrics.GameEnded("timeout")
	log.Printf("[Engine] Round in %s timed out\n", code)
	e.toRoom(code, events.GameEnded, events.GameEndedPayload{
		Winner:  nil,
		Answer:  rt.Answer,
		Message: msgTimeout,
	})

	session, err := e.Store.FindSessionByCode(ctx, code)
	if err != nil {
		return e.logFailure("finding session", err)
	}
	session.IsActive = false
	if err := e.Store.SaveSession(ctx, session); err != nil {
		return e.logFailure("saving session", err)
	}
	return nil
}

// HandleGuess submits a guess for the player bound to connID.
func (e *Engine) HandleGuess(ctx context.Context, connID, text string) error {
	b, ok := e.BindingFor(connID)
	if !ok {
		e.sendMessage(connID, msgNoActiveGame)
		return ErrNoActiveGame
	}
	return e.Guess(ctx, connID, b.SessionCode, b.PlayerID, text)
}

// Guess checks text against the running round's answer. Each player gets
// MaxAttempts guesses per round.
func (e *Engine) Guess(ctx context.Context, connID, code, playerID, text string) error {
	unlock := e.Registry.Lock(code)
	defer unlock()

	rt := e.Registry.Get(code)
	if rt == nil {
		e.sendMessage(connID, msgNoActiveGame)
		return ErrNoActiveGame
	}

	rt.Attempts[playerID]++
	if rt.Attempts[playerID] > e.Config.MaxAttempts {
		e.Metrics.Guess("exhausted")
		e.sendMessage(connID, msgNoAttempts)
		return ErrAttemptsExhausted
	}

	if !matches(text, rt.Answer) {
		e.Metrics.Guess("wrong")
		e.sendMessage(connID, msgWrongAnswer)
		return nil
	}
	e.Metrics.Guess("correct")

	winner, err := e.Store.FindPlayerByID(ctx, playerID)
	if err != nil {
		return e.failed(connID, "finding winner", err)
	}

	e.finish(rt)
	e.Metrics.GameEnded("win")
	log.Printf("[Engine] %s won the round in %s\n", winner.Username, code)

	var errs []error
	winner.Score += e.Config.WinPoints
	if err := e.Store.SavePlayer(ctx, winner); err != nil {
		errs = append(errs, e.logFailure("saving winner", err))
	}
	scores, err := e.Store.FindPlayersBySession(ctx, code)
	if err != nil {
		errs = append(errs, e.logFailure("listing scores", err))
	}

	name := winner.Username
	e.toRoom(code, events.GameEnded, events.GameEndedPayload{
		Winner:  &name,
		Answer:  rt.Answer,
		Message: fmt.Sprintf("%s guessed correctly!", name),
		Scores:  scores,
	})

	session, err := e.Store.FindSessionByCode(ctx, code)
	if err != nil {
		errs = append(errs, e.logFailure("finding session", err))
		return errors.Join(errs...)
	}
	session.IsActive = false
	session.WinnerID = playerID
	if err := e.Store.SaveSession(ctx, session); err != nil {
		errs = append(errs, e.logFailure("saving session", err))
	}
	return errors.Join(errs...)
}

// finish stops the round's ticking and drops it from the registry.
func (e *Engine) finish(rt *rooms.Runtime) {
	rt.Stop()
	e.Registry.Remove(rt.Code)
}

func matches(guess, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(answer))
}
