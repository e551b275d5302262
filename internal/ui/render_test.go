package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

var fixedToday = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestBoardRendersEveryColumn(t *testing.T) {
	r := NewRenderer(DefaultTheme)

	out := r.Board(map[board.ColumnID][]*board.Task{
		board.ColumnExecution: {
			{Key: "PROJ-1", Title: "Implement login", Column: board.ColumnExecution},
		},
	}, fixedToday)

	for _, col := range board.Columns {
		if !strings.Contains(out, board.DisplayName(col)) {
			t.Errorf("board output missing column %q", board.DisplayName(col))
		}
	}
	if !strings.Contains(out, "PROJ-1") {
		t.Error("board output missing task key")
	}
	if !strings.Contains(out, "In Progress (1)") {
		t.Error("board output missing execution column count")
	}
}

func TestBoardSortsByPriorityThenKey(t *testing.T) {
	r := NewRenderer(DefaultTheme)

	out := r.Board(map[board.ColumnID][]*board.Task{
		board.ColumnReady: {
			{Key: "PROJ-2", Title: "b", Column: board.ColumnReady, Priority: 2},
			{Key: "PROJ-3", Title: "c", Column: board.ColumnReady, Priority: 0},
			{Key: "PROJ-1", Title: "a", Column: board.ColumnReady, Priority: 2},
		},
	}, fixedToday)

	i3 := strings.Index(out, "PROJ-3")
	i1 := strings.Index(out, "PROJ-1")
	i2 := strings.Index(out, "PROJ-2")
	if !(i3 < i1 && i1 < i2) {
		t.Errorf("priority order wrong: PROJ-3 at %d, PROJ-1 at %d, PROJ-2 at %d", i3, i1, i2)
	}
}

func TestSwimlanesOrderAndTitles(t *testing.T) {
	r := NewRenderer(DefaultTheme)

	past := fixedToday.AddDate(0, 0, -2)
	out := r.Swimlanes(map[board.Swimlane][]*board.Task{
		board.LaneOverdue: {
			{Key: "PROJ-9", Title: "late", Column: board.ColumnExecution, DueDate: &past},
		},
	}, fixedToday)

	iOver := strings.Index(out, "Overdue")
	iOn := strings.Index(out, "On Schedule")
	iUn := strings.Index(out, "Unscheduled")
	if !(iOver >= 0 && iOver < iOn && iOn < iUn) {
		t.Errorf("lane order wrong: %d %d %d", iOver, iOn, iUn)
	}
	if !strings.Contains(out, "due 2026-03-08") {
		t.Error("swimlane output missing due date")
	}
}
