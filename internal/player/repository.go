// Package player holds the participant registry and per-player match
// statistics.
package player

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq" // Used for handling specific PostgreSQL errors
)

var (
	ErrNotFound   = errors.New("player not found")
	ErrNameExists = errors.New("player name already exists")
)

// Player is the registered participant record.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

// Repository defines the contract for player persistence. It doubles as
// the arena's directory (Exists) and stats recorder (RecordResult).
type Repository interface {
	Create(ctx context.Context, name string) (*Player, error)
	Get(ctx context.Context, playerID string) (*Player, error)
	Exists(ctx context.Context, playerID string) (bool, error)
	RecordResult(ctx context.Context, winnerID, loserID string, draw bool) error
}

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, name string) (*Player, error) {
	query := `
		INSERT INTO players (name)
		VALUES ($1)
		RETURNING id;`

	var id string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			slog.Warn("attempted to register duplicate player name", "name", name)
			return nil, ErrNameExists
		}
		slog.Error("failed to create player", "error", err)
		return nil, err
	}
	return &Player{ID: id, Name: name}, nil
}

func (r *postgresRepository) Get(ctx context.Context, playerID string) (*Player, error) {
	query := `
		SELECT id, name, wins, losses, draws
		FROM players
		WHERE id = $1;`

	var p Player
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&p.ID, &p.Name, &p.Wins, &p.Losses, &p.Draws)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Error("failed to get player", "playerID", playerID, "error", err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Exists(ctx context.Context, playerID string) (bool, error) {
	_, err := r.Get(ctx, playerID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordResult bumps both players' tallies in one transaction so a
// crash cannot credit one side without debiting the other.
func (r *postgresRepository) RecordResult(ctx context.Context, winnerID, loserID string, draw bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if draw {
		if _, err := tx.ExecContext(ctx,
			`UPDATE players SET draws = draws + 1 WHERE id = $1 OR id = $2;`,
			winnerID, loserID); err != nil {
			return err
		}
		return tx.Commit()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET wins = wins + 1 WHERE id = $1;`, winnerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET losses = losses + 1 WHERE id = $1;`, loserID); err != nil {
		return err
	}
	return tx.Commit()
}
