package vault

import (
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

func testTask() *board.Task {
	due := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &board.Task{
		Key:         "PROJ-1",
		Title:       "Fix login",
		Description: "Users cannot log in with SSO.",
		Kind:        board.KindDefect,
		Column:      board.ColumnExecution,
		Sprint:      "Sprint 9",
		Priority:    1,
		DueDate:     &due,
		Links:       []board.TaskLink{{Type: board.LinkBlocks, Key: "PROJ-2"}},
		UpdatedAt:   time.Now(),
	}
}

func TestSyncTaskNoteUnconfigured(t *testing.T) {
	v := New("", log.New(os.Stderr, "[test] ", 0))

	res, err := v.SyncTaskNote(testTask())
	if err != nil {
		t.Fatalf("SyncTaskNote failed: %v", err)
	}
	if !res.Skipped || res.Reason == "" {
		t.Errorf("expected a skip with a reason, got %+v", res)
	}
}

func TestSyncTaskNoteWritesAndRewrites(t *testing.T) {
	dir := t.TempDir()
	v := New(dir, log.New(os.Stderr, "[test] ", 0))
	task := testTask()

	res, err := v.SyncTaskNote(task)
	if err != nil {
		t.Fatalf("SyncTaskNote failed: %v", err)
	}
	if !res.Synced || !res.IsNew {
		t.Errorf("first sync: %+v, want synced and new", res)
	}

	data, err := os.ReadFile(v.NotePath("PROJ-1"))
	if err != nil {
		t.Fatalf("failed to read note: %v", err)
	}
	note := string(data)
	for _, want := range []string{"---", "key: PROJ-1", "column: execution", "# Fix login", "[[PROJ-2]]"} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}

	// Second sync is an overwrite, not new.
	task.Column = board.ColumnValidation
	res, err = v.SyncTaskNote(task)
	if err != nil {
		t.Fatalf("second SyncTaskNote failed: %v", err)
	}
	if !res.Synced || res.IsNew {
		t.Errorf("second sync: %+v, want synced and not new", res)
	}

	data, _ = os.ReadFile(v.NotePath("PROJ-1"))
	if !strings.Contains(string(data), "column: validation") {
		t.Error("rewrite did not update the frontmatter column")
	}
}

func TestNotePathSanitizes(t *testing.T) {
	v := New("/vault", nil)
	p := v.NotePath("PROJ/1:evil")
	if strings.ContainsAny(p[len("/vault/"):], "/:") {
		t.Errorf("unsanitized note path: %s", p)
	}
}
