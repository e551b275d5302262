package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// ErrTaskNotFound is returned when a task key has no row.
var ErrTaskNotFound = fmt.Errorf("task not found")

const taskColumns = `key, title, description, kind, column_id, sprint,
	priority, assignee, due_date, links, remote_status, updated_at`

// UpsertTask inserts or updates a task row.
func (s *Store) UpsertTask(t *board.Task) error {
	return s.UpsertTaskContext(context.Background(), t)
}

// UpsertTaskContext inserts or updates a task with context support.
func (s *Store) UpsertTaskContext(ctx context.Context, t *board.Task) error {
	if t.Key == "" {
		return fmt.Errorf("task key is required")
	}
	if !board.ValidColumn(t.Column) {
		return fmt.Errorf("invalid column %q for task %s", t.Column, t.Key)
	}

	linksJSON, err := json.Marshal(t.Links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		kind = excluded.kind,
		column_id = excluded.column_id,
		sprint = excluded.sprint,
		priority = excluded.priority,
		assignee = excluded.assignee,
		due_date = excluded.due_date,
		links = excluded.links,
		remote_status = excluded.remote_status,
		updated_at = excluded.updated_at
	`

	updatedAt := t.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.conn.ExecContext(ctx, query,
		t.Key,
		t.Title,
		t.Description,
		string(t.Kind),
		string(t.Column),
		t.Sprint,
		t.Priority,
		t.Assignee,
		timeToNullString(t.DueDate),
		string(linksJSON),
		t.RemoteStatus,
		updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", t.Key, err)
	}
	return nil
}

// UpdateTaskColumn persists just a column change.
// Returns ErrTaskNotFound if the key has no row.
func (s *Store) UpdateTaskColumn(key string, col board.ColumnID) error {
	return s.UpdateTaskColumnContext(context.Background(), key, col)
}

// UpdateTaskColumnContext persists a column change with context support.
func (s *Store) UpdateTaskColumnContext(ctx context.Context, key string, col board.ColumnID) error {
	if !board.ValidColumn(col) {
		return fmt.Errorf("invalid column %q", col)
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE tasks SET column_id = ?, updated_at = ? WHERE key = ?`,
		string(col), time.Now().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("failed to update column for %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update column for %s: %w", key, ErrTaskNotFound)
	}
	return nil
}

// GetTask retrieves a single task by key.
// Returns ErrTaskNotFound if no row matches.
func (s *Store) GetTask(key string) (*board.Task, error) {
	return s.GetTaskContext(context.Background(), key)
}

// GetTaskContext retrieves a task with context support.
func (s *Store) GetTaskContext(ctx context.Context, key string) (*board.Task, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE key = ?`, key)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get task %s: %w", key, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", key, err)
	}
	return t, nil
}

// GetAllTasks returns every persisted task, ordered by priority then key.
func (s *Store) GetAllTasks() ([]*board.Task, error) {
	return s.GetAllTasksContext(context.Background())
}

// GetAllTasksContext returns every task with context support.
func (s *Store) GetAllTasksContext(ctx context.Context) ([]*board.Task, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY priority ASC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*board.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// PruneTasksExcept deletes every task whose key is not in keep. This is the
// "sync and prune" step after a successful full sync: tasks gone from the
// remote result set are removed explicitly, never silently retained.
// Returns the number of pruned rows.
func (s *Store) PruneTasksExcept(keep []string) (int, error) {
	return s.PruneTasksExceptContext(context.Background(), keep)
}

// PruneTasksExceptContext prunes with context support.
func (s *Store) PruneTasksExceptContext(ctx context.Context, keep []string) (int, error) {
	if len(keep) == 0 {
		res, err := s.conn.ExecContext(ctx, `DELETE FROM tasks`)
		if err != nil {
			return 0, fmt.Errorf("failed to prune tasks: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
	args := make([]interface{}, len(keep))
	for i, k := range keep {
		args[i] = k
	}

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE key NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// TaskCount returns the number of persisted tasks.
func (s *Store) TaskCount() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*board.Task, error) {
	var (
		t                     board.Task
		kind, col             string
		description, assignee sql.NullString
		dueDate, remoteStatus sql.NullString
		linksJSON             sql.NullString
		updatedAt             string
	)

	err := row.Scan(
		&t.Key, &t.Title, &description, &kind, &col, &t.Sprint,
		&t.Priority, &assignee, &dueDate, &linksJSON, &remoteStatus, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Assignee = assignee.String
	t.Kind = board.IssueKind(kind)
	t.Column = board.ColumnID(col)
	t.DueDate = nullStringToTime(dueDate)
	t.RemoteStatus = remoteStatus.String

	if linksJSON.Valid && linksJSON.String != "" && linksJSON.String != "null" {
		if err := json.Unmarshal([]byte(linksJSON.String), &t.Links); err != nil {
			return nil, fmt.Errorf("failed to unmarshal links: %w", err)
		}
	}

	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}
