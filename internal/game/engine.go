// Package game runs the session state machine: lobby, active round, resolved.
//
// Every operation on a session code runs under that code's registry lock, so
// joins, starts, ticks and guesses for one session are applied one at a time
// while different sessions proceed in parallel. A round ends by removing its
// runtime from the registry; whichever of the timeout and winning-guess paths
// gets the lock second finds nothing to end.
package game

import (
	"fmt"
	"sync"
	"time"

	"guesswhat/internal/metrics"
	"guesswhat/internal/rooms"
	"guesswhat/internal/store"

	"github.com/jonboulle/clockwork"
)

type Config struct {
	RoundDuration int // seconds
	MaxAttempts   int
	MinPlayers    int
	WinPoints     int
	TickInterval  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoundDuration: 60,
		MaxAttempts:   3,
		MinPlayers:    2,
		WinPoints:     10,
		TickInterval:  time.Second,
	}
}

// Broadcaster delivers events to channels (session codes) and single connections.
type Broadcaster interface {
	JoinChannel(connID, channel string)
	EmitToChannel(channel, event string, payload any) error
	EmitToConnection(connID, event string, payload any) error
}

// Scheduler runs fn every interval until stop is called.
type Scheduler interface {
	Every(interval time.Duration, name string, fn func()) (stop func(), err error)
}

// Binding ties a connection to the player it joined as.
type Binding struct {
	PlayerID    string
	SessionCode string
}

type Engine struct {
	Store    store.Store
	Registry *rooms.Registry
	Gateway  Broadcaster
	Sched    Scheduler
	Clock    clockwork.Clock
	Metrics  *metrics.Metrics // optional
	Config   Config

	mu       sync.RWMutex
	bindings map[string]Binding // connection ID -> binding
}

func NewEngine(st store.Store, reg *rooms.Registry, gw Broadcaster, sched Scheduler, cfg Config) *Engine {
	return &Engine{
		Store:    st,
		Registry: reg,
		Gateway:  gw,
		Sched:    sched,
		Clock:    clockwork.NewRealClock(),
		Config:   cfg,
		bindings: make(map[string]Binding),
	}
}

func (e *Engine) bind(connID string, b Binding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bindings[connID] = b
}

// BindingFor returns the player a connection joined as.
func (e *Engine) BindingFor(connID string) (Binding, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.bindings[connID]
	return b, ok
}

// Disconnect forgets the connection's binding. The player stays registered in
// the session and a running round is not affected.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.bindings, connID)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
