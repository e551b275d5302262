package reconcile

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/cache"
	"github.com/Inna0915/jiraflow/internal/remote"
	"github.com/Inna0915/jiraflow/internal/vault"
)

// fakeStore records calls and fails on demand.
type fakeStore struct {
	mu            sync.Mutex
	columnUpdates []board.ColumnID
	workLogs      []*board.WorkLogEntry
	failUpdate    bool
	failWorkLog   bool
}

func (f *fakeStore) UpdateTaskColumn(key string, col board.ColumnID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return fmt.Errorf("disk full")
	}
	f.columnUpdates = append(f.columnUpdates, col)
	return nil
}

func (f *fakeStore) CreateWorkLogEntry(e *board.WorkLogEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWorkLog {
		return false, fmt.Errorf("disk full")
	}
	for _, existing := range f.workLogs {
		if existing.TaskKey == e.TaskKey && existing.DateKey() == e.DateKey() {
			return false, nil
		}
	}
	f.workLogs = append(f.workLogs, e)
	return true, nil
}

func (f *fakeStore) updates() []board.ColumnID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.ColumnID(nil), f.columnUpdates...)
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workLogs)
}

// fakeRemote returns a scripted result and counts calls.
type fakeRemote struct {
	mu     sync.Mutex
	calls  int
	result *remote.TransitionResult
	err    error
	// block, when non-nil, is closed by the test to release the call.
	block chan struct{}
}

func (f *fakeRemote) TransitionIssue(ctx context.Context, key string, target board.ColumnID) (*remote.TransitionResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.result == nil && f.err == nil {
		return &remote.TransitionResult{Success: true, NewRemoteStatus: "Confirmed"}, nil
	}
	return f.result, f.err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEvents struct {
	mu    sync.Mutex
	moved []string
}

func (f *fakeEvents) TaskMoved(task *board.Task, from, to board.ColumnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = append(f.moved, fmt.Sprintf("%s:%s->%s", task.Key, from, to))
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", 0)
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
}

func setup(t *testing.T, rc Transitioner, st *fakeStore) (*Orchestrator, *cache.Cache, *fakeEvents) {
	t.Helper()

	c := cache.New()
	events := &fakeEvents{}
	o := New(c, st, rc, vault.New("", testLogger()), events, Config{
		Logger: testLogger(),
		Now:    fixedNow,
	})
	return o, c, events
}

func storyTask(key string, col board.ColumnID) *board.Task {
	yesterday := fixedNow().AddDate(0, 0, -1)
	return &board.Task{
		Key:     key,
		Title:   "Story " + key,
		Kind:    board.KindStory,
		Column:  col,
		Sprint:  "Sprint 9",
		DueDate: &yesterday,
	}
}

func TestMoveNoop(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnExecution).Wait()
	if res.Outcome != OutcomeNoop {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeNoop)
	}
	if rc.callCount() != 0 {
		t.Error("noop must not call the remote")
	}
	if st.logCount() != 0 {
		t.Error("noop must not create a work log")
	}
}

func TestMoveRejectedByValidator(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnClosed).Wait()
	if res.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeRejected)
	}
	if res.Reason == "" {
		t.Error("rejection must carry the validator's reason")
	}

	cur, _ := c.Get("S-1")
	if cur.Column != board.ColumnExecution {
		t.Errorf("rejected move mutated the cache: %s", cur.Column)
	}
	if rc.callCount() != 0 || len(st.updates()) != 0 {
		t.Error("rejected move must touch neither store nor remote")
	}
}

func TestMoveUnknownTask(t *testing.T) {
	o, _, _ := setup(t, &fakeRemote{}, &fakeStore{})

	res := o.MoveTask(context.Background(), "NOPE-1", board.ColumnDone).Wait()
	if res.Outcome != OutcomeRejected || !strings.Contains(res.Reason, "not found") {
		t.Errorf("result = %+v", res)
	}
}

func TestMoveConfirmedWithWorkLog(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{}
	o, c, events := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	m := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone)
	if !m.Optimistic {
		t.Fatal("legal move should return optimistically")
	}

	// The cache shows the target immediately, before settlement.
	cur, _ := c.Get("S-1")
	if cur.Column != board.ColumnExecutionDone {
		t.Errorf("optimistic column = %s, want %s", cur.Column, board.ColumnExecutionDone)
	}

	res := m.Wait()
	if res.Outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Reason)
	}
	if !res.WorkLogNew {
		t.Error("story entering dev-complete should create a fresh work log")
	}
	if res.Note == nil || !res.Note.Skipped {
		t.Errorf("unconfigured vault should report a skip, got %+v", res.Note)
	}

	if got := st.updates(); len(got) != 1 || got[0] != board.ColumnExecutionDone {
		t.Errorf("store updates = %v", got)
	}
	if st.logCount() != 1 {
		t.Errorf("work logs = %d, want 1", st.logCount())
	}

	cur, _ = c.Get("S-1")
	if cur.RemoteStatus != "Confirmed" {
		t.Errorf("remote status not recorded: %q", cur.RemoteStatus)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.moved) != 1 {
		t.Errorf("events = %v", events.moved)
	}
}

func TestMoveWorkLogPredicate(t *testing.T) {
	cases := []struct {
		kind    board.IssueKind
		from    board.ColumnID
		target  board.ColumnID
		wantLog bool
	}{
		{board.KindStory, board.ColumnExecution, board.ColumnExecutionDone, true},
		{board.KindStory, board.ColumnReady, board.ColumnBacklog, false},
		{board.KindDefect, board.ColumnExecution, board.ColumnValidation, true},
		{board.KindDefect, board.ColumnBacklog, board.ColumnExecution, false},
		{board.KindOther, board.ColumnExecution, board.ColumnExecutionDone, false},
	}

	for _, tc := range cases {
		st := &fakeStore{}
		o, c, _ := setup(t, &fakeRemote{}, st)
		task := storyTask("K-1", tc.from)
		task.Kind = tc.kind
		c.Upsert(task)

		res := o.MoveTask(context.Background(), "K-1", tc.target).Wait()
		if res.Outcome != OutcomeConfirmed {
			t.Fatalf("%s %s->%s: outcome %s (%s)", tc.kind, tc.from, tc.target, res.Outcome, res.Reason)
		}
		if got := st.logCount() == 1; got != tc.wantLog {
			t.Errorf("%s entering %s: logged=%v, want %v", tc.kind, tc.target, got, tc.wantLog)
		}
	}
}

func TestMoveWorkLogSameDayRepeat(t *testing.T) {
	st := &fakeStore{}
	o, c, _ := setup(t, &fakeRemote{}, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone).Wait()
	if !res.WorkLogNew {
		t.Fatal("first entry should be new")
	}

	// Step back and repeat the same move on the same day.
	if res := o.MoveTask(context.Background(), "S-1", board.ColumnExecution).Wait(); res.Outcome != OutcomeConfirmed {
		t.Fatalf("back-step failed: %+v", res)
	}
	res = o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone).Wait()
	if res.Outcome != OutcomeConfirmed {
		t.Fatalf("repeat move failed: %+v", res)
	}
	if res.WorkLogNew {
		t.Error("same-day repeat must report the work log as not new")
	}
	if st.logCount() != 1 {
		t.Errorf("work logs = %d, want exactly 1", st.logCount())
	}
}

func TestMovePersistenceFailureRollsBack(t *testing.T) {
	st := &fakeStore{failUpdate: true}
	rc := &fakeRemote{}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone).Wait()
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	cur, _ := c.Get("S-1")
	if cur.Column != board.ColumnExecution {
		t.Errorf("cache column = %s, want reverted %s", cur.Column, board.ColumnExecution)
	}
	if rc.callCount() != 0 {
		t.Error("remote must never be called when local persistence fails")
	}
	if st.logCount() != 0 {
		t.Error("no side effect may survive a rollback")
	}
}

func TestMoveRemoteFailureRollsBack(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{
		result: &remote.TransitionResult{ErrorCode: remote.CodeRemoteError},
		err:    fmt.Errorf("network down"),
	}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone).Wait()
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %s", res.Outcome)
	}

	cur, _ := c.Get("S-1")
	if cur.Column != board.ColumnExecution {
		t.Errorf("cache column = %s, want reverted %s", cur.Column, board.ColumnExecution)
	}
	// Store was told about the move, then told to revert it.
	if got := st.updates(); len(got) != 2 || got[1] != board.ColumnExecution {
		t.Errorf("store updates = %v, want [execution-complete execution]", got)
	}
	if st.logCount() != 0 {
		t.Error("no work log may exist for a rolled-back move")
	}
}

func TestMoveGuidedScreenRequired(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{
		result: &remote.TransitionResult{ErrorCode: remote.CodeGuidedScreenRequired},
		err:    remote.ErrGuidedScreenRequired,
	}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	res := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone).Wait()
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if res.ErrorCode != remote.CodeGuidedScreenRequired {
		t.Errorf("error code = %q", res.ErrorCode)
	}
	if !strings.Contains(res.Reason, "guided screen") {
		t.Errorf("reason should name the guided screen: %q", res.Reason)
	}

	cur, _ := c.Get("S-1")
	if cur.Column != board.ColumnExecution {
		t.Errorf("cache column = %s, want reverted", cur.Column)
	}
}

func TestMoveCounterUpBeforeOptimisticApply(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{block: make(chan struct{})}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	// A sync tick reads MovesInFlight to decide whether it may bulk-replace
	// the cache. From the first instant the optimistic column is visible the
	// counter must already be up; a window with the new column visible and a
	// zero counter would let a tick replace the board and a later rollback
	// clobber the fresh sync data.
	stop := make(chan struct{})
	violation := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			cur, ok := c.Get("S-1")
			if ok && cur.Column == board.ColumnExecutionDone && c.MovesInFlight() == 0 {
				select {
				case violation <- struct{}{}:
				default:
				}
				return
			}
		}
	}()

	m := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone)
	close(stop)
	wg.Wait()
	select {
	case <-violation:
		t.Fatal("optimistic column became visible while zero moves were in flight")
	default:
	}

	close(rc.block)
	if res := m.Wait(); res.Outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Reason)
	}
	if c.MovesInFlight() != 0 {
		t.Error("move counter must return to zero after settlement")
	}
}

func TestMoveHoldsOffScheduler(t *testing.T) {
	st := &fakeStore{}
	rc := &fakeRemote{block: make(chan struct{})}
	o, c, _ := setup(t, rc, st)
	c.Upsert(storyTask("S-1", board.ColumnExecution))

	m := o.MoveTask(context.Background(), "S-1", board.ColumnExecutionDone)

	// While the remote call is in flight the move counter is up, which is
	// what the sync scheduler checks before replacing the cache.
	deadline := time.After(2 * time.Second)
	for c.MovesInFlight() != 1 {
		select {
		case <-deadline:
			t.Fatal("move never registered as in flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(rc.block)
	if res := m.Wait(); res.Outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Reason)
	}
	if c.MovesInFlight() != 0 {
		t.Error("move counter must return to zero after settlement")
	}
}
