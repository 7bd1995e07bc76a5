package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrRunNotFound is returned for operations on an unknown run id.
	ErrRunNotFound = errors.New("pipeline run not found")
	// ErrRunFinished is returned when logging to a run that already ended.
	ErrRunFinished = errors.New("pipeline run already finished")
)

// Store is the SQLite record of digests, published episodes and pipeline runs.
// Writes are expected to be serialized by the caller.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the database file at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize enables WAL and creates the tables
func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	digestsTable := `
	CREATE TABLE IF NOT EXISTS digests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		show_id TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		article_count INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0,
		topics_summary TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		segment_counts TEXT NOT NULL DEFAULT '{}',
		segment_sources TEXT NOT NULL DEFAULT '{}',
		synthesized INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);`

	// An episode row locks the digest for the same date.
	episodesTable := `
	CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		audio_path TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		topics_summary TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		published_at DATETIME NOT NULL
	);`

	runsTable := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		current_step TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		steps_log TEXT NOT NULL DEFAULT '[]'
	);`

	tables := []string{digestsTable, episodesTable, runsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// limited applies a positive limit to a select.
func limited(b sq.SelectBuilder, limit int) sq.SelectBuilder {
	if limit > 0 {
		return b.Limit(uint64(limit))
	}
	return b
}
