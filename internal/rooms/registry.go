// Package rooms holds the live state of running games, keyed by session code.
package rooms

import (
	"sync"
	"time"
)

// Runtime is the in-memory state of one running round. Its fields are only
// touched while the code's lock is held.
type Runtime struct {
	Code      string
	Question  string
	Answer    string
	Attempts  map[string]int // player ID -> guesses so far
	TimeLeft  int            // seconds
	StartedAt time.Time

	stop     func()
	stopOnce sync.Once
}

func NewRuntime(code, question, answer string, timeLeft int, startedAt time.Time) *Runtime {
	return &Runtime{
		Code:      code,
		Question:  question,
		Answer:    answer,
		Attempts:  make(map[string]int),
		TimeLeft:  timeLeft,
		StartedAt: startedAt,
	}
}

// SetStop attaches the function that cancels the round's ticking.
func (r *Runtime) SetStop(stop func()) {
	r.stop = stop
}

// Stop cancels the tick. Calling it more than once is a no-op.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		if r.stop != nil {
			r.stop()
		}
	})
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Registry maps session codes to running rounds.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Runtime
	locks    map[string]*keyLock
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Runtime),
		locks:    make(map[string]*keyLock),
	}
}

// Lock serializes work on one code. Different codes never block each other.
func (r *Registry) Lock(code string) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[code]
	if !ok {
		l = &keyLock{}
		r.locks[code] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, code)
		}
		r.mu.Unlock()
	}
}

func (r *Registry) Get(code string) *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[code]
}

func (r *Registry) Put(code string, rt *Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[code] = rt
}

// Remove deletes the round for code and returns it, or nil if none was running.
func (r *Registry) Remove(code string) *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt := r.sessions[code]
	delete(r.sessions, code)
	return rt
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
