package board

import "fmt"

// Decision is the outcome of a workflow validation. When Allowed is false,
// Reason carries a human-readable explanation naming both columns.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...interface{}) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// retriageColumns are the story-workflow escape hatch: a story-like task may
// always be sent back here for re-triage, regardless of where it sits.
var retriageColumns = map[ColumnID]bool{
	ColumnReady:   true,
	ColumnBacklog: true,
}

// backStepColumns is the execution/test/validation neighborhood within which
// a story-like task may move one stage backward.
var backStepColumns = map[ColumnID]bool{
	ColumnExecution:     true,
	ColumnExecutionDone: true,
	ColumnReview:        true,
	ColumnTestDone:      true,
	ColumnValidation:    true,
}

// defectSequence is the shorter defect workflow. Defect-like tasks may only
// move forward one stage or back one stage along this list; there is no
// re-triage escape hatch.
var defectSequence = []ColumnID{
	ColumnIntake,
	ColumnBacklog,
	ColumnExecution,
	ColumnValidation,
	ColumnTestDone,
	ColumnDone,
	ColumnClosed,
}

var defectIndex = func() map[ColumnID]int {
	m := make(map[ColumnID]int, len(defectSequence))
	for i, c := range defectSequence {
		m[c] = i
	}
	return m
}()

// Validate decides whether moving a task of the given kind from current to
// target is legal. It is a pure gate: no side effects, no knowledge of
// persistence or the remote tracker.
//
// Unknown current or target columns are a hard validation failure, never
// silently allowed.
func Validate(kind IssueKind, current, target ColumnID) Decision {
	if !ValidColumn(current) {
		return deny("unknown current column %q", current)
	}
	if !ValidColumn(target) {
		return deny("unknown target column %q", target)
	}
	if current == target {
		return allow()
	}

	switch kind {
	case KindStory:
		return validateStory(current, target)
	case KindDefect:
		return validateDefect(current, target)
	default:
		// Other kinds carry no workflow constraint.
		return allow()
	}
}

func validateStory(current, target ColumnID) Decision {
	// Re-triage escape hatch: back to ready or backlog from anywhere.
	if retriageColumns[target] {
		return allow()
	}

	cur := ColumnPosition(current)
	tgt := ColumnPosition(target)

	// Forward one stage along the board order.
	if tgt == cur+1 {
		return allow()
	}

	// One stage back, but only inside the execution/test/validation
	// neighborhood.
	if tgt == cur-1 && backStepColumns[current] && backStepColumns[target] {
		return allow()
	}

	return deny("story workflow does not allow moving from %q to %q",
		DisplayName(current), DisplayName(target))
}

func validateDefect(current, target ColumnID) Decision {
	cur, onList := defectIndex[current]
	if !onList {
		return deny("defect workflow has no stage %q", DisplayName(current))
	}
	tgt, onList := defectIndex[target]
	if !onList {
		return deny("defect workflow has no stage %q", DisplayName(target))
	}

	if tgt == cur+1 {
		return allow()
	}
	// One step back, except out of a terminal stage: a done or closed
	// defect only moves forward to closed.
	if tgt == cur-1 && !Terminal(current) {
		return allow()
	}

	return deny("defect workflow does not allow moving from %q to %q",
		DisplayName(current), DisplayName(target))
}
