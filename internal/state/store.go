// Package state persists a history of flatten runs for operational
// inspection. The pipeline itself never reads it back; it is an audit
// surface, not a cache.
package state

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// Run is one recorded top-level operation.
type Run struct {
	ID           string
	RootFile     string
	Mode         string
	StartedAt    time.Time
	DurationMS   int64
	DynamicCount int
	WarningCount int
	Error        string
}

// Store records flatten runs in SQLite.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens a run-history store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "open state database").
			WithContext("path", dbPath).Build()
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "initialize state schema").Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root_file TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		dynamic_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root_file);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, root_file, mode, started_at, duration_ms, dynamic_count, warning_count, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.RootFile, run.Mode, run.StartedAt.Unix(), run.DurationMS, run.DynamicCount, run.WarningCount, run.Error,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryState, "insert run").
			WithContext("run_id", run.ID).Build()
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, root_file, mode, started_at, duration_ms, dynamic_count, warning_count, error FROM runs ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "query runs").Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.RootFile, &r.Mode, &started, &r.DurationMS, &r.DynamicCount, &r.WarningCount, &r.Error); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryState, "scan run").Build()
		}
		r.StartedAt = time.Unix(started, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
