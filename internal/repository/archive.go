// Package repository is the optional PostgreSQL backend for the finished
// game archive. A playgroup that runs the tracker on a shared box points
// database.url at Postgres and gets a durable archive queryable across
// devices; without it the local SQLite archive is used alone.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/magefree/mage-tracker-go/internal/game"
)

// Archive persists finished games to PostgreSQL.
type Archive struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens the pool, verifies the connection, and ensures the schema.
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &Archive{pool: pool, logger: logger}
	if err := a.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	logger.Info("connected to archive database")
	return a, nil
}

func (a *Archive) migrate(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS finished_games (
			id          TEXT PRIMARY KEY,
			format      TEXT NOT NULL,
			winner      TEXT NOT NULL DEFAULT '',
			turns       INTEGER NOT NULL,
			duration_s  DOUBLE PRECISION NOT NULL,
			state_json  JSONB NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// SaveFinishedGame stores a finished session and its dashboard totals.
func (a *Archive) SaveFinishedGame(ctx context.Context, state *game.SessionState, stats *game.GameStats, stateJSON []byte) error {
	winner := ""
	if stats.Winner >= 0 {
		winner = state.Players[stats.Winner].DisplayName()
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO finished_games (id, format, winner, turns, duration_s, state_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, state.ID, string(state.Format), winner, stats.Turns, stats.DurationSeconds, stateJSON)
	if err != nil {
		return fmt.Errorf("save finished game: %w", err)
	}
	a.logger.Info("archived finished game",
		zap.String("id", state.ID),
		zap.String("winner", winner),
		zap.Int("turns", stats.Turns),
	)
	return nil
}

// FinishedGame is one row of the archive listing.
type FinishedGame struct {
	ID         string
	Format     string
	Winner     string
	Turns      int
	DurationS  float64
	FinishedAt time.Time
}

// ListFinishedGames returns recent finished games, newest first.
func (a *Archive) ListFinishedGames(ctx context.Context, limit int) ([]FinishedGame, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.pool.Query(ctx, `
		SELECT id, format, winner, turns, duration_s, finished_at
		FROM finished_games ORDER BY finished_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list finished games: %w", err)
	}
	defer rows.Close()

	var games []FinishedGame
	for rows.Next() {
		var g FinishedGame
		if err := rows.Scan(&g.ID, &g.Format, &g.Winner, &g.Turns, &g.DurationS, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan finished game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Close releases the pool.
func (a *Archive) Close() {
	a.pool.Close()
}
