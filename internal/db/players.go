package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guesswhat/internal/store"

	"github.com/google/uuid"
)

func (d *DB) CreatePlayer(ctx context.Context, username, sessionCode string) (*store.Player, error) {
	p := &store.Player{ID: uuid.NewString(), Username: username, SessionCode: sessionCode}
	_, err := d.conn.ExecContext(ctx, d.rebind(`
		INSERT INTO players (id, username, score, session_code)
		VALUES ($1, $2, 0, $3)
	`), p.ID, p.Username, nullString(sessionCode))
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}
	return p, nil
}

func (d *DB) FindPlayerByID(ctx context.Context, id string) (*store.Player, error) {
	var p store.Player
	var code sql.NullString
	err := d.conn.QueryRowContext(ctx, d.rebind(`
		SELECT id, username, score, session_code FROM players WHERE id = $1
	`), id).Scan(&p.ID, &p.Username, &p.Score, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	p.SessionCode = code.String
	return &p, nil
}

func (d *DB) SavePlayer(ctx context.Context, p *store.Player) error {
	res, err := d.conn.ExecContext(ctx, d.rebind(`
		UPDATE players SET username = $2, score = $3, session_code = $4 WHERE id = $1
	`), p.ID, p.Username, p.Score, nullString(p.SessionCode))
	if err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("saving player %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

// FindPlayersBySession lists a session's players in join order.
func (d *DB) FindPlayersBySession(ctx context.Context, code string) ([]*store.Player, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(`
		SELECT p.id, p.username, p.score, p.session_code
		FROM session_players sp
		JOIN players p ON p.id = sp.player_id AND p.session_code = sp.session_code
		WHERE sp.session_code = $1
		ORDER BY sp.position
	`), code)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	list := []*store.Player{}
	for rows.Next() {
		var p store.Player
		var sc sql.NullString
		if err := rows.Scan(&p.ID, &p.Username, &p.Score, &sc); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		p.SessionCode = sc.String
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	return list, nil
}
