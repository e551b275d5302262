// Package syncer drives whole-board refresh against the remote tracker.
//
// Full sync rebuilds the task cache from a three-stage remote discovery
// (board, then sprint, then issues); each stage must succeed before the next
// runs and a failure aborts the sync, naming the stage, with no partial
// commit. Incremental sync fetches only the delta since the last cursor and
// transparently falls back to full sync when the cursor is missing, stale,
// or disagrees with the local task count.
//
// A periodic timer re-invokes incremental sync; the timer skips ticks while
// a reconciliation move is in flight so a bulk replace can never overwrite
// an unsettled optimistic update.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/cache"
	"github.com/Inna0915/jiraflow/internal/remote"
)

// Sync stages, reported by SyncError.
const (
	StageBoard   = "board-discovery"
	StageSprint  = "sprint-discovery"
	StageIssues  = "issue-fetch"
	StagePersist = "persist"
)

// SyncError wraps a sync failure with the stage that produced it.
type SyncError struct {
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// State is the scheduler's externally visible state.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// Stats summarizes one successful sync.
type Stats struct {
	// Mode is "full" or "incremental".
	Mode string
	// FellBack is true when an incremental request was served by a full
	// sync because the cursor was missing or stale.
	FellBack bool
	// Total is the number of tasks now on the board.
	Total int
	// Changed is how many tasks this sync wrote.
	Changed int
	// Pruned is how many previously-known tasks were removed.
	Pruned int
	// Sprint is the sprint the board is tracking.
	Sprint string
}

// Store is the slice of the persistent store the scheduler needs.
type Store interface {
	UpsertTask(t *board.Task) error
	PruneTasksExcept(keep []string) (int, error)
	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Events receives sync outcomes. Implementations must not block.
type Events interface {
	SyncCompleted(stats *Stats)
	SyncFailed(stage string, err error)
}

// Config configures a Scheduler.
type Config struct {
	// Interval between periodic incremental syncs. Clamped to a one
	// minute floor; zero means 5 minutes.
	Interval time.Duration

	// StalenessThreshold is how old a cursor may be before an incremental
	// sync falls back to full. Zero means 24 hours.
	StalenessThreshold time.Duration

	// Mapper resolves remote statuses to columns. Nil gets a default.
	Mapper *board.StatusMapper

	// Logger for sync activity. Nil gets a stderr default.
	Logger *log.Logger

	// Now is the clock used for cursor bookkeeping. Nil means time.Now.
	Now func() time.Time
}

// MinInterval is the floor for the periodic sync period.
const MinInterval = time.Minute

// Scheduler owns full and incremental board refresh.
type Scheduler struct {
	cache  *cache.Cache
	store  Store
	client remote.Client
	events Events

	interval  time.Duration
	staleness time.Duration
	mapper    *board.StatusMapper
	logger    *log.Logger
	now       func() time.Time

	// syncMu serializes sync runs; state tracks the Idle/Syncing/Error
	// machine for observers.
	syncMu sync.Mutex
	state  atomic.Value // State

	paused atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler. events may be nil.
func New(c *cache.Cache, store Store, client remote.Client, events Events, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = 24 * time.Hour
	}
	if cfg.Mapper == nil {
		cfg.Mapper = &board.StatusMapper{Logger: cfg.Logger}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Scheduler{
		cache:     c,
		store:     store,
		client:    client,
		events:    events,
		interval:  cfg.Interval,
		staleness: cfg.StalenessThreshold,
		mapper:    cfg.Mapper,
		logger:    cfg.Logger,
		now:       cfg.Now,
		stop:      make(chan struct{}),
	}
	s.state.Store(StateIdle)
	return s
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	return s.state.Load().(State)
}

// Pause suspends the periodic timer. Explicit sync calls still run.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
}

// Resume lifts a Pause.
func (s *Scheduler) Resume() {
	s.paused.Store(false)
}

// ResetCursor clears the persisted sync cursor, forcing the next
// incremental sync to fall back to full. Called on configuration change.
func (s *Scheduler) ResetCursor() error {
	if err := s.store.DeleteSetting(cursorSettingKey); err != nil {
		return fmt.Errorf("failed to reset sync cursor: %w", err)
	}
	s.logger.Println("Sync cursor reset")
	return nil
}

// Start runs the periodic incremental sync loop until ctx is cancelled or
// Stop is called. An initial full sync is performed up front so the board
// is populated immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Printf("Starting sync loop (interval %s)", s.interval)

	if _, err := s.RunFullSync(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	s.wg.Add(1)
	go s.loop(ctx)

	select {
	case <-ctx.Done():
	case <-s.stop:
	}
	s.Stop()
	s.wg.Wait()
	return nil
}

// Stop terminates the periodic loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one scheduled incremental sync. A paused scheduler or an
// in-flight move skips the tick instead of queueing behind it; the next
// tick picks the work back up. Reports whether a sync was attempted.
func (s *Scheduler) tick(ctx context.Context) bool {
	if s.paused.Load() {
		return false
	}
	if n := s.cache.MovesInFlight(); n > 0 {
		s.logger.Printf("Skipping sync tick: %d move(s) in flight", n)
		return false
	}
	if _, err := s.RunIncrementalSync(ctx); err != nil {
		s.logger.Printf("Periodic sync failed: %v", err)
	}
	return true
}

// RunFullSync rebuilds the board from the remote tracker.
//
// Discovery is strictly staged: board, then sprint, then issues. On success
// the whole result set replaces the task cache, previously-known tasks not
// in the result are pruned from the store, and a fresh cursor is written.
// On failure nothing changes and the returned error names the stage.
func (s *Scheduler) RunFullSync(ctx context.Context) (*Stats, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.fullSyncLocked(ctx, false)
}

func (s *Scheduler) fullSyncLocked(ctx context.Context, fellBack bool) (*Stats, error) {
	s.state.Store(StateSyncing)
	s.logger.Println("Starting full sync")

	b, err := s.client.DiscoverBoard(ctx)
	if err != nil {
		return nil, s.fail(StageBoard, err)
	}

	sprint, err := s.client.DiscoverSprint(ctx, b.ID)
	if err != nil {
		return nil, s.fail(StageSprint, err)
	}

	issues, err := s.client.ListIssues(ctx, sprint)
	if err != nil {
		return nil, s.fail(StageIssues, err)
	}

	tasks := make([]*board.Task, 0, len(issues))
	keys := make([]string, 0, len(issues))
	for _, is := range issues {
		t := s.issueToTask(is)
		tasks = append(tasks, t)
		keys = append(keys, t.Key)
	}

	// Persist before the cache swap so a store failure leaves the cache
	// untouched.
	for _, t := range tasks {
		if err := s.store.UpsertTask(t); err != nil {
			return nil, s.fail(StagePersist, err)
		}
	}
	pruned, err := s.store.PruneTasksExcept(keys)
	if err != nil {
		return nil, s.fail(StagePersist, err)
	}

	cursor := &Cursor{LastSync: s.now(), RemoteCount: len(tasks)}
	if err := s.store.SetSetting(cursorSettingKey, cursor.encode()); err != nil {
		return nil, s.fail(StagePersist, err)
	}

	s.cache.ReplaceAll(tasks)
	s.state.Store(StateIdle)

	stats := &Stats{
		Mode:     "full",
		FellBack: fellBack,
		Total:    len(tasks),
		Changed:  len(tasks),
		Pruned:   pruned,
		Sprint:   sprint.Name,
	}
	s.logger.Printf("Full sync complete: %d tasks (%d pruned), sprint %q", stats.Total, stats.Pruned, stats.Sprint)
	if s.events != nil {
		s.events.SyncCompleted(stats)
	}
	return stats, nil
}

// RunIncrementalSync fetches only the issues changed since the last cursor.
//
// A missing, malformed or stale cursor, or a cursor whose count disagrees
// with the local board, falls back to a full sync rather than producing
// incomplete results.
func (s *Scheduler) RunIncrementalSync(ctx context.Context) (*Stats, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	cursor := s.loadCursor()
	switch {
	case cursor == nil:
		s.logger.Println("No usable sync cursor; falling back to full sync")
		return s.fullSyncLocked(ctx, true)
	case cursor.Stale(s.now(), s.staleness):
		s.logger.Printf("Sync cursor stale (last sync %s); falling back to full sync", cursor.LastSync.Format(time.RFC3339))
		return s.fullSyncLocked(ctx, true)
	case cursor.RemoteCount != s.cache.Len():
		s.logger.Printf("Cursor count %d disagrees with board size %d; falling back to full sync", cursor.RemoteCount, s.cache.Len())
		return s.fullSyncLocked(ctx, true)
	}

	s.state.Store(StateSyncing)
	s.logger.Printf("Starting incremental sync since %s", cursor.LastSync.Format(time.RFC3339))

	b, err := s.client.DiscoverBoard(ctx)
	if err != nil {
		return nil, s.fail(StageBoard, err)
	}
	sprint, err := s.client.DiscoverSprint(ctx, b.ID)
	if err != nil {
		return nil, s.fail(StageSprint, err)
	}

	issues, err := s.client.ListIssuesChangedSince(ctx, sprint, cursor.LastSync)
	if err != nil {
		return nil, s.fail(StageIssues, err)
	}

	changed := 0
	for _, is := range issues {
		t := s.issueToTask(is)
		if err := s.store.UpsertTask(t); err != nil {
			return nil, s.fail(StagePersist, err)
		}
		s.cache.Upsert(t)
		changed++
	}

	next := &Cursor{LastSync: s.now(), RemoteCount: s.cache.Len()}
	if err := s.store.SetSetting(cursorSettingKey, next.encode()); err != nil {
		return nil, s.fail(StagePersist, err)
	}

	s.state.Store(StateIdle)
	stats := &Stats{
		Mode:    "incremental",
		Total:   s.cache.Len(),
		Changed: changed,
		Sprint:  sprint.Name,
	}
	s.logger.Printf("Incremental sync complete: %d changed, %d total", stats.Changed, stats.Total)
	if s.events != nil {
		s.events.SyncCompleted(stats)
	}
	return stats, nil
}

// fail records a stage failure. The state machine stays in Error until the
// next run stores Syncing, so observers can see what the last outcome was;
// the cache is left untouched.
func (s *Scheduler) fail(stage string, err error) error {
	s.state.Store(StateError)
	serr := &SyncError{Stage: stage, Err: err}
	s.logger.Printf("ERROR: %v", serr)
	if s.events != nil {
		s.events.SyncFailed(stage, err)
	}
	return serr
}

// loadCursor reads the persisted cursor; nil means "no usable cursor".
func (s *Scheduler) loadCursor() *Cursor {
	value, ok, err := s.store.GetSetting(cursorSettingKey)
	if err != nil {
		s.logger.Printf("WARNING: failed to read sync cursor: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	cursor, err := decodeCursor(value)
	if err != nil {
		s.logger.Printf("WARNING: %v", err)
		return nil
	}
	return cursor
}

// issueToTask converts a remote issue into a board task. Statuses that fail
// to map land in the fallback column inside the mapper; the task is never
// left without a valid column.
func (s *Scheduler) issueToTask(is *remote.Issue) *board.Task {
	sprint := is.Sprint
	if sprint == "" {
		sprint = "backlog"
	}
	return &board.Task{
		Key:          is.Key,
		Title:        is.Summary,
		Description:  is.Description,
		Kind:         board.KindFromRemote(is.Type),
		Column:       s.mapper.MapStatus(is.Status),
		Sprint:       sprint,
		Priority:     is.Priority,
		DueDate:      is.DueDate,
		Assignee:     is.Assignee,
		RemoteStatus: is.Status,
		UpdatedAt:    is.Updated,
		Links:        convertLinks(is.Links),
	}
}

func convertLinks(links []remote.IssueLink) []board.TaskLink {
	if len(links) == 0 {
		return nil
	}
	out := make([]board.TaskLink, 0, len(links))
	for _, l := range links {
		out = append(out, board.TaskLink{Type: linkType(l.Type), Key: l.Key})
	}
	return out
}

func linkType(remoteType string) board.LinkType {
	switch remoteType {
	case "Blocks", "blocks":
		return board.LinkBlocks
	case "Duplicate", "duplicates":
		return board.LinkDuplicate
	case "Parent", "parent":
		return board.LinkParent
	default:
		return board.LinkRelated
	}
}
