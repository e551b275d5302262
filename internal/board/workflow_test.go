package board

import (
	"strings"
	"testing"
)

func TestValidateStoryForward(t *testing.T) {
	// Every single forward step along the board order is allowed.
	for i := 0; i < len(Columns)-1; i++ {
		d := Validate(KindStory, Columns[i], Columns[i+1])
		if !d.Allowed {
			t.Errorf("story %s -> %s denied: %s", Columns[i], Columns[i+1], d.Reason)
		}
	}
}

func TestValidateStoryRetriageEscape(t *testing.T) {
	// Moves back to ready or backlog are always allowed, from anywhere.
	for _, from := range Columns {
		for _, target := range []ColumnID{ColumnReady, ColumnBacklog} {
			if from == target {
				continue
			}
			if d := Validate(KindStory, from, target); !d.Allowed {
				t.Errorf("story re-triage %s -> %s denied: %s", from, target, d.Reason)
			}
		}
	}
}

func TestValidateStoryBackStep(t *testing.T) {
	cases := []struct {
		from, to ColumnID
		want     bool
	}{
		{ColumnExecutionDone, ColumnExecution, true},
		{ColumnReview, ColumnExecutionDone, true},
		{ColumnTestDone, ColumnReview, true},
		{ColumnValidation, ColumnTestDone, true},
		// Outside the execution/test/validation neighborhood.
		{ColumnResolved, ColumnValidation, false},
		{ColumnDone, ColumnResolved, false},
		{ColumnDefinition, ColumnIntake, false},
		// Skipping stages.
		{ColumnValidation, ColumnExecution, false},
		{ColumnExecution, ColumnValidation, false},
		{ColumnIntake, ColumnDone, false},
	}

	for _, tc := range cases {
		d := Validate(KindStory, tc.from, tc.to)
		if d.Allowed != tc.want {
			t.Errorf("story %s -> %s: allowed=%v, want %v (%s)",
				tc.from, tc.to, d.Allowed, tc.want, d.Reason)
		}
		if !tc.want && d.Reason == "" {
			t.Errorf("story %s -> %s denied without a reason", tc.from, tc.to)
		}
	}
}

func TestValidateDefect(t *testing.T) {
	cases := []struct {
		from, to ColumnID
		want     bool
	}{
		{ColumnIntake, ColumnBacklog, true},
		{ColumnBacklog, ColumnExecution, true},
		{ColumnExecution, ColumnValidation, true},
		{ColumnValidation, ColumnTestDone, true},
		{ColumnTestDone, ColumnDone, true},
		{ColumnDone, ColumnClosed, true},
		// Single step back on the defect list.
		{ColumnExecution, ColumnBacklog, true},
		{ColumnValidation, ColumnExecution, true},
		{ColumnTestDone, ColumnValidation, true},
		// No re-triage escape hatch for defects.
		{ColumnTestDone, ColumnBacklog, false},
		{ColumnClosed, ColumnBacklog, false},
		// Stages not on the defect list.
		{ColumnExecution, ColumnExecutionDone, false},
		{ColumnReview, ColumnTestDone, false},
		// Skipping stages.
		{ColumnIntake, ColumnExecution, false},
		{ColumnBacklog, ColumnDone, false},
	}

	for _, tc := range cases {
		d := Validate(KindDefect, tc.from, tc.to)
		if d.Allowed != tc.want {
			t.Errorf("defect %s -> %s: allowed=%v, want %v (%s)",
				tc.from, tc.to, d.Allowed, tc.want, d.Reason)
		}
	}
}

func TestValidateDefectDoneOnlyMovesToClosed(t *testing.T) {
	for _, target := range Columns {
		if target == ColumnDone || target == ColumnClosed {
			continue
		}
		if d := Validate(KindDefect, ColumnDone, target); d.Allowed {
			t.Errorf("defect done -> %s should be denied", target)
		}
	}
	if d := Validate(KindDefect, ColumnDone, ColumnClosed); !d.Allowed {
		t.Errorf("defect done -> closed denied: %s", d.Reason)
	}
}

func TestValidateOtherKindAlwaysAllowed(t *testing.T) {
	for _, from := range Columns {
		for _, to := range Columns {
			if d := Validate(KindOther, from, to); !d.Allowed {
				t.Errorf("other kind %s -> %s denied: %s", from, to, d.Reason)
			}
		}
	}
}

func TestValidateUnknownColumns(t *testing.T) {
	cases := []struct {
		from, to ColumnID
	}{
		{"nonsense", ColumnReady},
		{ColumnReady, "nonsense"},
		{"", ColumnReady},
	}

	for _, kind := range []IssueKind{KindStory, KindDefect, KindOther} {
		for _, tc := range cases {
			d := Validate(kind, tc.from, tc.to)
			if d.Allowed {
				t.Errorf("%s: %q -> %q with unknown column must be denied", kind, tc.from, tc.to)
			}
			if !strings.Contains(d.Reason, "unknown") {
				t.Errorf("%s: %q -> %q reason %q should name the unknown column", kind, tc.from, tc.to, d.Reason)
			}
		}
	}
}

func TestValidateSameColumnAllowed(t *testing.T) {
	for _, kind := range []IssueKind{KindStory, KindDefect, KindOther} {
		if d := Validate(kind, ColumnExecution, ColumnExecution); !d.Allowed {
			t.Errorf("%s: same-column move denied: %s", kind, d.Reason)
		}
	}
}
