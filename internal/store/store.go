// Package store defines the persistence API for sessions and players.
//
// Two implementations exist: Memory in this package, used when no database is
// configured, and the SQL-backed store in internal/db.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("not found")

// Player is the durable per-player record.
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	SessionCode string `json:"sessionCode,omitempty"`
}

// Session is the durable record of one game session.
type Session struct {
	Code      string     `json:"sessionCode"`
	MasterID  string     `json:"masterId"`
	Players   []string   `json:"players"` // player IDs in join order
	Question  string     `json:"question,omitempty"`
	Answer    string     `json:"-"`
	IsActive  bool       `json:"isActive"`
	WinnerID  string     `json:"winnerId,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
}

// Store is the Session Store and Player Directory.
type Store interface {
	CreatePlayer(ctx context.Context, username, sessionCode string) (*Player, error)
	CreateSession(ctx context.Context, code, masterID string, players []string) (*Session, error)
	FindSessionByCode(ctx context.Context, code string) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	FindPlayersBySession(ctx context.Context, code string) ([]*Player, error)
	FindPlayerByID(ctx context.Context, id string) (*Player, error)
	SavePlayer(ctx context.Context, p *Player) error
}
