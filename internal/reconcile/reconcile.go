// Package reconcile drives single task moves against the remote tracker.
//
// A move is an optimistic mutation with remote-call confirmation and
// compensating rollback: the cache is patched immediately so the UI reflects
// the move with zero latency, the new column is persisted locally, the
// remote transition is confirmed asynchronously, and any failure along the
// way reverts both cache and store to the pre-move snapshot. Side effects
// (work log, note vault) run only after the remote has confirmed; a move
// that rolls back never leaves a side effect behind.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/cache"
	"github.com/Inna0915/jiraflow/internal/remote"
	"github.com/Inna0915/jiraflow/internal/vault"
)

// Store is the slice of the persistent store the orchestrator needs.
type Store interface {
	UpdateTaskColumn(key string, col board.ColumnID) error
	CreateWorkLogEntry(e *board.WorkLogEntry) (isNew bool, err error)
}

// Transitioner is the slice of the remote client the orchestrator needs.
type Transitioner interface {
	TransitionIssue(ctx context.Context, key string, target board.ColumnID) (*remote.TransitionResult, error)
}

// NoteSyncer mirrors a task snapshot into the note vault.
type NoteSyncer interface {
	SyncTaskNote(t *board.Task) (*vault.Result, error)
}

// Events receives confirmed board changes. Implementations must not block.
type Events interface {
	TaskMoved(task *board.Task, from, to board.ColumnID)
}

// Outcome classifies how a move ended.
type Outcome string

const (
	// OutcomeNoop: the task was already in the target column. No mutation,
	// no work log, no remote call.
	OutcomeNoop Outcome = "noop"
	// OutcomeRejected: the workflow validator denied the move (or the task
	// is unknown). Nothing was mutated.
	OutcomeRejected Outcome = "rejected"
	// OutcomeConfirmed: the remote accepted the transition and the
	// optimistic state was kept.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeRolledBack: local persistence or the remote transition failed
	// and cache and store were reverted to the pre-move snapshot.
	OutcomeRolledBack Outcome = "rolled-back"
)

// MoveResult is the settled outcome of a move.
type MoveResult struct {
	Outcome Outcome
	// Reason is the human-readable explanation for rejections and
	// rollbacks.
	Reason string
	// ErrorCode carries the remote failure class on rollback, notably
	// remote.CodeGuidedScreenRequired.
	ErrorCode string
	// WorkLogNew is true when the move created a fresh work-log entry.
	// A same-day repeat is reported as "not new", never as an error.
	WorkLogNew bool
	// Note is the note-vault sync result, when attempted.
	Note *vault.Result
}

// Move is the handle returned by MoveTask. When Optimistic is true the cache
// already shows the target column and the final result arrives on Result();
// otherwise the result is already available.
type Move struct {
	Key        string
	From       board.ColumnID
	Target     board.ColumnID
	Optimistic bool

	done chan MoveResult
}

// Result delivers the settled MoveResult exactly once.
func (m *Move) Result() <-chan MoveResult {
	return m.done
}

// Wait blocks until the move settles.
func (m *Move) Wait() MoveResult {
	return <-m.done
}

// Config configures an Orchestrator.
type Config struct {
	// RemoteTimeout bounds the remote transition call. Zero means 30s.
	RemoteTimeout time.Duration
	// Logger for move activity. Nil gets a stderr default.
	Logger *log.Logger
	// Now is the clock used for work-log dates. Nil means time.Now.
	Now func() time.Time
}

// Orchestrator owns the move pipeline.
type Orchestrator struct {
	cache  *cache.Cache
	store  Store
	remote Transitioner
	notes  NoteSyncer
	events Events

	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// New creates an orchestrator. notes and events may be nil; the
// corresponding side effects are then skipped.
func New(c *cache.Cache, store Store, rc Transitioner, notes NoteSyncer, events Events, cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 30 * time.Second
	}
	return &Orchestrator{
		cache:   c,
		store:   store,
		remote:  rc,
		notes:   notes,
		events:  events,
		timeout: cfg.RemoteTimeout,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
}

// MoveTask moves a task to the target column.
//
// Rejections and no-ops settle before MoveTask returns. A legal move is
// applied to the cache optimistically and MoveTask returns with
// Optimistic=true while persistence, the remote transition and the side
// effects continue in the background; the settled result arrives on the
// returned handle. Once the optimistic apply has happened the move runs to
// confirmation or rollback; there is no mid-flight cancellation.
func (o *Orchestrator) MoveTask(ctx context.Context, key string, target board.ColumnID) *Move {
	m := &Move{Key: key, Target: target, done: make(chan MoveResult, 1)}

	task, ok := o.cache.Get(key)
	if !ok {
		m.done <- MoveResult{Outcome: OutcomeRejected, Reason: fmt.Sprintf("task %s not found", key)}
		return m
	}
	m.From = task.Column

	if task.Column == target {
		m.done <- MoveResult{Outcome: OutcomeNoop}
		return m
	}

	if d := board.Validate(task.Kind, task.Column, target); !d.Allowed {
		o.logger.Printf("Move %s -> %s rejected: %s", key, target, d.Reason)
		m.done <- MoveResult{Outcome: OutcomeRejected, Reason: d.Reason}
		return m
	}

	// Hold off the sync scheduler before the optimistic state becomes
	// visible: a tick landing between the apply and the counter bump could
	// bulk-replace the board and a later rollback would clobber its data.
	o.cache.BeginMove()

	// Optimistic apply. SetColumn returns the pre-move snapshot used for
	// every rollback path below.
	snapshot, ok := o.cache.SetColumn(key, target)
	if !ok {
		o.cache.EndMove()
		m.done <- MoveResult{Outcome: OutcomeRejected, Reason: fmt.Sprintf("task %s not found", key)}
		return m
	}
	m.Optimistic = true

	// The caller's ctx must not abort a move that is already visible in
	// the UI; only its values survive, and the remote call gets its own
	// deadline.
	bg := context.WithoutCancel(ctx)
	go o.settle(bg, m, snapshot)

	return m
}

// settle runs persistence, the remote transition and side effects, and
// delivers the final result. Runs in its own goroutine.
func (o *Orchestrator) settle(ctx context.Context, m *Move, snapshot *board.Task) {
	defer o.cache.EndMove()

	// Local persistence must complete before the remote hears about the
	// move. If it fails the remote call is never attempted.
	if err := o.store.UpdateTaskColumn(m.Key, m.Target); err != nil {
		o.logger.Printf("Persistence failed for %s, rolling back: %v", m.Key, err)
		o.cache.Restore(snapshot)
		m.done <- MoveResult{
			Outcome: OutcomeRolledBack,
			Reason:  fmt.Sprintf("could not persist move locally: %v", err),
		}
		return
	}

	rctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := o.remote.TransitionIssue(rctx, m.Key, m.Target)
	if err != nil || res == nil || !res.Success {
		o.rollback(m, snapshot, res, err)
		return
	}

	task, _ := o.cache.Get(m.Key)
	if task == nil {
		task = snapshot.Clone()
		task.Column = m.Target
	}
	if res.NewRemoteStatus != "" {
		task.RemoteStatus = res.NewRemoteStatus
		o.cache.Upsert(task)
	}

	result := MoveResult{Outcome: OutcomeConfirmed}
	o.sideEffects(task, m, &result)

	if o.events != nil {
		o.events.TaskMoved(task, m.From, m.Target)
	}

	o.logger.Printf("Move %s: %s -> %s confirmed", m.Key, m.From, m.Target)
	m.done <- result
}

// rollback reverts cache and store after a remote failure. The persisted
// column from the earlier step is reverted too so local state stays
// consistent with the cache.
func (o *Orchestrator) rollback(m *Move, snapshot *board.Task, res *remote.TransitionResult, err error) {
	o.cache.Restore(snapshot)
	if serr := o.store.UpdateTaskColumn(m.Key, snapshot.Column); serr != nil {
		// The cache is already reverted; the store catches up on the
		// next sync.
		o.logger.Printf("WARNING: failed to revert persisted column for %s: %v", m.Key, serr)
	}

	code := remote.CodeRemoteError
	if res != nil && res.ErrorCode != "" {
		code = res.ErrorCode
	}

	reason := "remote transition failed"
	switch {
	case code == remote.CodeGuidedScreenRequired:
		reason = fmt.Sprintf("the remote tracker requires a guided screen to reach %s; finish the move there", board.DisplayName(m.Target))
	case err != nil:
		reason = fmt.Sprintf("remote transition failed: %v", err)
	}

	o.logger.Printf("Move %s: %s -> %s rolled back (%s)", m.Key, m.From, m.Target, code)
	m.done <- MoveResult{Outcome: OutcomeRolledBack, Reason: reason, ErrorCode: code}
}

// sideEffects runs the post-confirmation effects. Each is independently
// fire-and-forget: failures are logged and never unwind the move.
func (o *Orchestrator) sideEffects(task *board.Task, m *Move, result *MoveResult) {
	if shouldLogWork(task.Kind, m.Target) {
		entry := &board.WorkLogEntry{
			TaskKey: m.Key,
			Origin:  board.OriginRemoteAuto,
			Text:    fmt.Sprintf("Moved to %s", board.DisplayName(m.Target)),
			Date:    o.now(),
		}
		isNew, err := o.store.CreateWorkLogEntry(entry)
		if err != nil {
			o.logger.Printf("WARNING: work log for %s failed: %v", m.Key, err)
		} else {
			result.WorkLogNew = isNew
		}
	}

	if o.notes != nil {
		note, err := o.notes.SyncTaskNote(task)
		if err != nil {
			o.logger.Printf("WARNING: note sync for %s failed: %v", m.Key, err)
		} else {
			result.Note = note
			if note.Skipped {
				o.logger.Printf("Note sync for %s skipped: %s", m.Key, note.Reason)
			}
		}
	}
}

// shouldLogWork is the logging predicate: a story entering dev-complete or a
// defect entering acceptance counts as a day worked on the task.
func shouldLogWork(kind board.IssueKind, target board.ColumnID) bool {
	switch kind {
	case board.KindStory:
		return target == board.ColumnExecutionDone
	case board.KindDefect:
		return target == board.ColumnValidation
	default:
		return false
	}
}
