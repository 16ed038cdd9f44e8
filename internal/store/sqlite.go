package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/pokertables/internal/game"

	_ "modernc.org/sqlite"
)

const sqliteTimeout = 3 * time.Second

// SQLite persists games as JSON documents in a single table
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS games (
    id         TEXT PRIMARY KEY,
    table_id   TEXT NOT NULL,
    status     TEXT NOT NULL,
    data       TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_table_status ON games (table_id, status);
`)
	if err != nil {
		return fmt.Errorf("create games schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) LoadGame(ctx context.Context, id string) (*game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, sqliteTimeout)
	defer cancel()

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM games WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var g game.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (s *SQLite) SaveGame(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, sqliteTimeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO games (id, table_id, status, data, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    table_id = excluded.table_id,
    status = excluded.status,
    data = excluded.data,
    updated_at = excluded.updated_at
`, g.ID, g.TableID, string(g.Status), string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

func (s *SQLite) ActiveGameForTable(ctx context.Context, tableID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, sqliteTimeout)
	defer cancel()

	var id string
	err := s.db.QueryRowContext(ctx, `
SELECT id FROM games
WHERE table_id = ? AND status = ?
ORDER BY updated_at DESC
LIMIT 1
`, tableID, string(game.StatusActive)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("active game for table %s: %w", tableID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query active game for table %s: %w", tableID, err)
	}
	return id, nil
}
