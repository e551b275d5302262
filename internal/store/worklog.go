package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// CreateWorkLogEntry writes a work-log entry, returning whether a new row
// was created.
//
// The (task, day) pair is the table's primary key and the insert uses
// ON CONFLICT DO NOTHING, so a same-day repeat is a harmless no-op reported
// as isNew=false rather than an error. The idempotency lives in the write
// itself, not in any after-the-fact deduplication.
func (s *Store) CreateWorkLogEntry(e *board.WorkLogEntry) (isNew bool, err error) {
	return s.CreateWorkLogEntryContext(context.Background(), e)
}

// CreateWorkLogEntryContext writes a work-log entry with context support.
func (s *Store) CreateWorkLogEntryContext(ctx context.Context, e *board.WorkLogEntry) (bool, error) {
	if e.TaskKey == "" {
		return false, fmt.Errorf("work log task key is required")
	}
	if e.Date.IsZero() {
		return false, fmt.Errorf("work log date is required")
	}

	query := `
	INSERT INTO work_logs (task_key, log_date, origin, text, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(task_key, log_date) DO NOTHING
	`

	res, err := s.conn.ExecContext(ctx, query,
		e.TaskKey,
		e.DateKey(),
		string(e.Origin),
		e.Text,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create work log for %s: %w", e.TaskKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// WorkLogsForDay returns the entries recorded on the given calendar day,
// ordered by task key.
func (s *Store) WorkLogsForDay(day time.Time) ([]*board.WorkLogEntry, error) {
	return s.WorkLogsForDayContext(context.Background(), day)
}

// WorkLogsForDayContext lists a day's entries with context support.
func (s *Store) WorkLogsForDayContext(ctx context.Context, day time.Time) ([]*board.WorkLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT task_key, log_date, origin, text
		FROM work_logs
		WHERE log_date = ?
		ORDER BY task_key ASC
	`, day.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query work logs: %w", err)
	}
	defer rows.Close()

	var entries []*board.WorkLogEntry
	for rows.Next() {
		var (
			e       board.WorkLogEntry
			logDate string
			origin  string
		)
		if err := rows.Scan(&e.TaskKey, &logDate, &origin, &e.Text); err != nil {
			return nil, fmt.Errorf("failed to scan work log: %w", err)
		}
		e.Origin = board.LogOrigin(origin)
		if d, err := time.Parse("2006-01-02", logDate); err == nil {
			e.Date = d
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work logs: %w", err)
	}
	return entries, nil
}

// DeleteWorkLogEntry removes one entry. Explicit user action only; the
// reconciliation core never deletes work logs.
func (s *Store) DeleteWorkLogEntry(taskKey string, day time.Time) error {
	_, err := s.conn.Exec(`DELETE FROM work_logs WHERE task_key = ? AND log_date = ?`,
		taskKey, day.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to delete work log for %s: %w", taskKey, err)
	}
	return nil
}
