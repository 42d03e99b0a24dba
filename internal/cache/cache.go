// Package cache persists the last successfully fetched server views so the
// UI can render the previous state before the first fetch of a session lands.
// It is a read-through cache: last write wins, no conflict resolution.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// View names the cacheable server-backed views.
const (
	ViewTips    = "tips"
	ViewJournal = "journal"
	ViewGoals   = "goals"
	ViewStreak  = "streak"
	ViewMetrics = "metrics"
	ViewProfile = "profile"
)

// ErrMiss is returned when no snapshot is stored for a view.
var ErrMiss = errors.New("no cached snapshot")

// Store is a single-table key to JSON snapshot store backed by sqlite.
type Store struct {
	path string
	db   *sql.DB
}

// NewStore opens (creating if needed) the snapshot database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		view       TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Store{path: path, db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores the JSON encoding of v as the snapshot for view.
func (s *Store) Put(view string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", view, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (view, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(view) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		view, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store snapshot %q: %w", view, err)
	}
	return nil
}

// Get decodes the stored snapshot for view into out. Returns ErrMiss when no
// snapshot exists.
func (s *Store) Get(view string, out any) error {
	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE view = ?`, view).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", view, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", view, err)
	}
	return nil
}

// Delete removes the snapshot for view. Deleting a missing view is a no-op.
func (s *Store) Delete(view string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE view = ?`, view)
	return err
}
