// Package store persists board state in an embedded SQLite database.
//
// The store is the local system of record between syncs: tasks, work-log
// entries and settings (including the sync cursor) live here. It runs in
// WAL mode so board reads stay fast while the sync scheduler writes.
//
// Uniqueness of (task, calendar day) for work logs is enforced by the
// schema, not by callers: the insert itself is a no-op conflict on a
// same-day repeat.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with board-specific queries.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the board database at the given path.
//
// The parent directory is created if needed. The caller must Close() the
// store when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return s, nil
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// InitSchema creates the tables and indexes if they don't exist.
// Idempotent; safe to call on every startup.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		key TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		kind TEXT NOT NULL,
		column_id TEXT NOT NULL,
		sprint TEXT NOT NULL DEFAULT 'backlog',
		priority INTEGER NOT NULL DEFAULT 2,
		assignee TEXT,
		due_date TEXT,
		links TEXT,  -- JSON array of {type, key}
		remote_status TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS work_logs (
		task_key TEXT NOT NULL,
		log_date TEXT NOT NULL,  -- YYYY-MM-DD, day granularity
		origin TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (task_key, log_date)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date);
	CREATE INDEX IF NOT EXISTS idx_work_logs_date ON work_logs(log_date);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// timeToNullString converts a time pointer to a nullable string for SQL.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable SQL string back to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
