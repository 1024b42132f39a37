package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory keeps records in process memory. Records handed out are copies, so
// changes only take effect through SaveSession / SavePlayer.
type Memory struct {
	mu       sync.RWMutex
	players  map[string]*Player
	sessions map[string]*Session
}

func NewMemory() *Memory {
	return &Memory{
		players:  make(map[string]*Player),
		sessions: make(map[string]*Session),
	}
}

func (m *Memory) CreatePlayer(ctx context.Context, username, sessionCode string) (*Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &Player{ID: uuid.NewString(), Username: username, SessionCode: sessionCode}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
	return copyPlayer(p), nil
}

func (m *Memory) CreateSession(ctx context.Context, code, masterID string, players []string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[code]; exists {
		return nil, fmt.Errorf("creating session: code %s already exists", code)
	}
	s := &Session{Code: code, MasterID: masterID, Players: slices.Clone(players)}
	m.sessions[code] = s
	return copySession(s), nil
}

func (m *Memory) FindSessionByCode(ctx context.Context, code string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(s), nil
}

func (m *Memory) SaveSession(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Code]; !ok {
		return fmt.Errorf("saving session %s: %w", s.Code, ErrNotFound)
	}
	m.sessions[s.Code] = copySession(s)
	return nil
}

func (m *Memory) FindPlayersBySession(ctx context.Context, code string) ([]*Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	if !ok {
		return []*Player{}, nil
	}
	list := make([]*Player, 0, len(s.Players))
	for _, id := range s.Players {
		if p, ok := m.players[id]; ok && p.SessionCode == code {
			list = append(list, copyPlayer(p))
		}
	}
	return list, nil
}

func (m *Memory) FindPlayerByID(ctx context.Context, id string) (*Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPlayer(p), nil
}

func (m *Memory) SavePlayer(ctx context.Context, p *Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; !ok {
		return fmt.Errorf("saving player %s: %w", p.ID, ErrNotFound)
	}
	m.players[p.ID] = copyPlayer(p)
	return nil
}

func copyPlayer(p *Player) *Player {
	c := *p
	return &c
}

func copySession(s *Session) *Session {
	c := *s
	c.Players = slices.Clone(s.Players)
	if s.StartTime != nil {
		t := *s.StartTime
		c.StartTime = &t
	}
	return &c
}
