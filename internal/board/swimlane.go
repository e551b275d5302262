package board

import "time"

// Swimlane is the due-date-derived triage lane of a task. Membership is
// recomputed from the task's due date, completion flag and a reference date;
// it is never stored as authoritative state.
type Swimlane string

const (
	LaneOverdue     Swimlane = "overdue"
	LaneOnSchedule  Swimlane = "on-schedule"
	LaneUnscheduled Swimlane = "unscheduled"
)

// Classification is the result of classifying one task into a swimlane.
// IsOverdue and IsOnSchedule are never both true; a task with no due date
// has both false and falls into the unscheduled lane.
type Classification struct {
	IsOverdue    bool
	IsOnSchedule bool
}

// Lane returns the single lane the classification denotes.
func (c Classification) Lane() Swimlane {
	switch {
	case c.IsOverdue:
		return LaneOverdue
	case c.IsOnSchedule:
		return LaneOnSchedule
	default:
		return LaneUnscheduled
	}
}

// Classify places a task into a triage lane given its due date, completion
// flag and a reference date. Only the calendar date of each value counts;
// time of day and location never shift a task across a day boundary, so a
// UTC-parsed due date and a local reference date agree on what "today" is.
//
// A finished task is on-schedule regardless of its due date: overdue is a
// statement about unfinished work, not historical lateness.
//
// Callers classifying a batch must supply one consistent today value across
// the batch so a task cannot flip lanes mid-render on a clock tick.
func Classify(dueDate *time.Time, isDone bool, today time.Time) Classification {
	if dueDate == nil {
		return Classification{}
	}

	if dateBefore(*dueDate, today) && !isDone {
		return Classification{IsOverdue: true}
	}
	return Classification{IsOnSchedule: true}
}

// ClassifyTask is the Task-level convenience wrapper around Classify.
func ClassifyTask(t *Task, today time.Time) Classification {
	return Classify(t.DueDate, t.Done(), today)
}

// dateBefore reports whether a's calendar date precedes b's, each read in
// its own location.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
