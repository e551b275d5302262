// Package board holds the pure domain rules of the task board: the fixed
// column set, the remote-status-to-column mapper, the due-date swimlane
// classifier, and the per-kind workflow validator.
//
// Nothing in this package performs I/O. Every function is deterministic so
// the reconciliation and sync layers can call into it without holding locks.
package board

// ColumnID identifies one of the fixed workflow stages a task occupies.
type ColumnID string

// The 12 board columns, in workflow order.
const (
	ColumnIntake        ColumnID = "intake"
	ColumnDefinition    ColumnID = "definition"
	ColumnReady         ColumnID = "ready"
	ColumnBacklog       ColumnID = "backlog"
	ColumnExecution     ColumnID = "execution"
	ColumnExecutionDone ColumnID = "execution-complete"
	ColumnReview        ColumnID = "review"
	ColumnTestDone      ColumnID = "test-complete"
	ColumnValidation    ColumnID = "validation"
	ColumnResolved      ColumnID = "resolved"
	ColumnDone          ColumnID = "done"
	ColumnClosed        ColumnID = "closed"
)

// Columns is the full ordered column set. Order is significant: the workflow
// validator derives "forward one stage" from adjacency in this slice.
var Columns = []ColumnID{
	ColumnIntake,
	ColumnDefinition,
	ColumnReady,
	ColumnBacklog,
	ColumnExecution,
	ColumnExecutionDone,
	ColumnReview,
	ColumnTestDone,
	ColumnValidation,
	ColumnResolved,
	ColumnDone,
	ColumnClosed,
}

// columnIndex maps each column to its position in Columns.
var columnIndex = func() map[ColumnID]int {
	m := make(map[ColumnID]int, len(Columns))
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

// terminalColumns is the set of columns whose membership marks a task done.
var terminalColumns = map[ColumnID]bool{
	ColumnResolved: true,
	ColumnDone:     true,
	ColumnClosed:   true,
}

// ValidColumn reports whether id is a member of the fixed column set.
func ValidColumn(id ColumnID) bool {
	_, ok := columnIndex[id]
	return ok
}

// ColumnPosition returns the zero-based position of id in the workflow order,
// or -1 if id is not a known column.
func ColumnPosition(id ColumnID) int {
	i, ok := columnIndex[id]
	if !ok {
		return -1
	}
	return i
}

// Terminal reports whether a task in this column counts as completed.
func Terminal(id ColumnID) bool {
	return terminalColumns[id]
}

// DisplayName returns the human-facing label for a column.
func DisplayName(id ColumnID) string {
	if name, ok := columnNames[id]; ok {
		return name
	}
	return string(id)
}

var columnNames = map[ColumnID]string{
	ColumnIntake:        "Intake",
	ColumnDefinition:    "Definition",
	ColumnReady:         "Ready",
	ColumnBacklog:       "Backlog",
	ColumnExecution:     "In Progress",
	ColumnExecutionDone: "Dev Complete",
	ColumnReview:        "Test / Review",
	ColumnTestDone:      "Test Complete",
	ColumnValidation:    "Acceptance",
	ColumnResolved:      "Resolved",
	ColumnDone:          "Done",
	ColumnClosed:        "Closed",
}
