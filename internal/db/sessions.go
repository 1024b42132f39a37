package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"guesswhat/internal/store"
)

var _ store.Store = (*DB)(nil)

func (d *DB) CreateSession(ctx context.Context, code, masterID string, players []string) (*store.Session, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, d.rebind(`
		INSERT INTO game_sessions (session_code, master_id)
		VALUES ($1, $2)
	`), code, masterID)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if err := d.insertSessionPlayers(ctx, tx, code, players); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return &store.Session{Code: code, MasterID: masterID, Players: slices.Clone(players)}, nil
}

func (d *DB) FindSessionByCode(ctx context.Context, code string) (*store.Session, error) {
	var s store.Session
	var winner sql.NullString
	var started sql.NullTime
	err := d.conn.QueryRowContext(ctx, d.rebind(`
		SELECT session_code, master_id, question, answer, is_active, winner_id, start_time
		FROM game_sessions WHERE session_code = $1
	`), code).Scan(&s.Code, &s.MasterID, &s.Question, &s.Answer, &s.IsActive, &winner, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	s.WinnerID = winner.String
	if started.Valid {
		t := started.Time
		s.StartTime = &t
	}

	rows, err := d.conn.QueryContext(ctx, d.rebind(`
		SELECT player_id FROM session_players WHERE session_code = $1 ORDER BY position
	`), code)
	if err != nil {
		return nil, fmt.Errorf("getting session players: %w", err)
	}
	defer rows.Close()

	s.Players = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session player: %w", err)
		}
		s.Players = append(s.Players, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting session players: %w", err)
	}
	return &s, nil
}

// SaveSession writes the mutable columns and appends players not yet stored.
// Players are never removed.
func (d *DB) SaveSession(ctx context.Context, s *store.Session) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var started sql.NullTime
	if s.StartTime != nil {
		started = sql.NullTime{Time: s.StartTime.UTC(), Valid: true}
	}
	res, err := tx.ExecContext(ctx, d.rebind(`
		UPDATE game_sessions
		SET master_id = $2, question = $3, answer = $4, is_active = $5, winner_id = $6, start_time = $7
		WHERE session_code = $1
	`), s.Code, s.MasterID, s.Question, s.Answer, s.IsActive, nullString(s.WinnerID), started)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("saving session %s: %w", s.Code, store.ErrNotFound)
	}
	if err := d.insertSessionPlayers(ctx, tx, s.Code, s.Players); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) insertSessionPlayers(ctx context.Context, tx *sql.Tx, code string, players []string) error {
	stmt, err := tx.PrepareContext(ctx, d.rebind(`
		INSERT INTO session_players (session_code, player_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_code, player_id) DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range players {
		if _, err := stmt.ExecContext(ctx, code, id, i); err != nil {
			return fmt.Errorf("adding session player: %w", err)
		}
	}
	return nil
}
