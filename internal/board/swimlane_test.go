package board

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datep(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestClassify(t *testing.T) {
	today := date(2026, time.March, 10)

	cases := []struct {
		name     string
		due      *time.Time
		done     bool
		wantLane Swimlane
	}{
		{"no due date", nil, false, LaneUnscheduled},
		{"no due date, done", nil, true, LaneUnscheduled},
		{"due yesterday, not done", datep(2026, time.March, 9), false, LaneOverdue},
		{"due today, not done", datep(2026, time.March, 10), false, LaneOnSchedule},
		{"due tomorrow, not done", datep(2026, time.March, 11), false, LaneOnSchedule},
		{"due yesterday, done", datep(2026, time.March, 9), true, LaneOnSchedule},
		{"due long ago, done", datep(2025, time.January, 1), true, LaneOnSchedule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.due, tc.done, today)
			if c.IsOverdue && c.IsOnSchedule {
				t.Fatal("IsOverdue and IsOnSchedule must never both be true")
			}
			if got := c.Lane(); got != tc.wantLane {
				t.Errorf("Classify(...).Lane() = %s, want %s", got, tc.wantLane)
			}
		})
	}
}

func TestClassifyStripsTimeOfDay(t *testing.T) {
	// due 23:59 yesterday vs today 00:01: still a full day apart after
	// truncation, so overdue.
	due := time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)

	if c := Classify(&due, false, today); !c.IsOverdue {
		t.Error("expected overdue when due date is the prior calendar day")
	}

	// Same calendar day, different clock times: on schedule.
	due = time.Date(2026, time.March, 10, 1, 0, 0, 0, time.UTC)
	today = time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC)

	if c := Classify(&due, false, today); !c.IsOnSchedule {
		t.Error("expected on-schedule when due date is the same calendar day")
	}
}

func TestClassifyMixedZones(t *testing.T) {
	// Due dates arrive from the remote as UTC midnight while the reference
	// date is the user's local clock. A task due today must stay
	// on-schedule even when the local zone is behind UTC and its instant
	// precedes the local morning.
	pst := time.FixedZone("PST", -8*60*60)

	due := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 10, 5, 0, 0, 0, pst)

	if c := Classify(&due, false, today); !c.IsOnSchedule {
		t.Errorf("task due today classified %s with a behind-UTC reference clock", c.Lane())
	}

	// A due date on the prior calendar day is overdue regardless of zone.
	due = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	if c := Classify(&due, false, today); !c.IsOverdue {
		t.Error("task due the prior calendar day should be overdue across zones")
	}

	// Ahead-of-UTC reference: local March 11 makes a UTC March 10 due date
	// overdue even though the instants are close.
	jst := time.FixedZone("JST", 9*60*60)
	due = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	today = time.Date(2026, time.March, 11, 1, 0, 0, 0, jst)
	if c := Classify(&due, false, today); !c.IsOverdue {
		t.Error("task due yesterday on the local calendar should be overdue")
	}
}

func TestClassifyTask(t *testing.T) {
	today := date(2026, time.March, 10)

	// Terminal column makes the task done, so a past due date is still
	// on-schedule.
	task := &Task{
		Key:     "PROJ-1",
		Column:  ColumnDone,
		DueDate: datep(2026, time.March, 1),
	}
	if c := ClassifyTask(task, today); c.Lane() != LaneOnSchedule {
		t.Errorf("done task lane = %s, want %s", c.Lane(), LaneOnSchedule)
	}

	task.Column = ColumnExecution
	if c := ClassifyTask(task, today); c.Lane() != LaneOverdue {
		t.Errorf("unfinished past-due task lane = %s, want %s", c.Lane(), LaneOverdue)
	}
}
