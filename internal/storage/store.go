package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// The autosave table holds exactly one row; every save overwrites it
// wholesale, matching the single-game model of the tracker.
const autosaveKey = "current"

// ErrNoSave is returned when no autosave exists.
var ErrNoSave = errors.New("no saved game")

// ErrNotFound is returned when an archived game id is unknown.
var ErrNotFound = errors.New("game not found")

// ArchiveRow is one finished game in the archive listing.
type ArchiveRow struct {
	ID         string
	Format     string
	Winner     string
	Turns      int
	DurationS  float64
	FinishedAt time.Time
}

// Store handles SQLite persistence for the autosave slot and the archive
// of finished games.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS autosave (
			slot       TEXT PRIMARY KEY,
			state_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS archive (
			id          TEXT PRIMARY KEY,
			format      TEXT NOT NULL,
			winner      TEXT NOT NULL DEFAULT '',
			turns       INTEGER NOT NULL,
			duration_s  REAL NOT NULL,
			state_json  TEXT NOT NULL,
			finished_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// SaveAutosave overwrites the single autosave slot.
func (s *Store) SaveAutosave(stateJSON []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO autosave (slot, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, autosaveKey, string(stateJSON))
	return err
}

// LoadAutosave returns the saved game blob, or ErrNoSave.
func (s *Store) LoadAutosave() ([]byte, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM autosave WHERE slot = ?", autosaveKey).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, err
	}
	return []byte(stateJSON), nil
}

// ClearAutosave drops the saved game, typically after it is finished or
// the operator declines to resume.
func (s *Store) ClearAutosave() error {
	_, err := s.db.Exec("DELETE FROM autosave WHERE slot = ?", autosaveKey)
	return err
}

// ArchiveGame stores a finished game alongside its dashboard inputs.
func (s *Store) ArchiveGame(id, format, winner string, turns int, durationS float64, stateJSON []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO archive (id, format, winner, turns, duration_s, state_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, format, winner, turns, durationS, string(stateJSON))
	return err
}

// ListArchive returns finished games, newest first.
func (s *Store) ListArchive(limit int) ([]ArchiveRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, format, winner, turns, duration_s, finished_at
		FROM archive ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ArchiveRow
	for rows.Next() {
		var ar ArchiveRow
		if err := rows.Scan(&ar.ID, &ar.Format, &ar.Winner, &ar.Turns, &ar.DurationS, &ar.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, ar)
	}
	return result, rows.Err()
}

// GetArchivedGame returns the stored blob for one finished game.
func (s *Store) GetArchivedGame(id string) ([]byte, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM archive WHERE id = ?", id).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(stateJSON), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
