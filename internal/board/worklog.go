package board

import "time"

// LogOrigin tags how a work-log entry came to exist.
type LogOrigin string

const (
	// OriginRemoteAuto marks entries created from remote-confirmed moves.
	OriginRemoteAuto LogOrigin = "remote-automatic"
	// OriginLocalAuto marks entries created from board-only mutations.
	OriginLocalAuto LogOrigin = "local-automatic"
	// OriginManual marks entries the user wrote by hand.
	OriginManual LogOrigin = "manual"
)

// WorkLogEntry records that a task was worked on a given calendar day.
//
// The pair (TaskKey, Date) is unique: at most one entry per task per day, no
// matter how many times the triggering move repeats. The store enforces this
// at write time; a same-day repeat is a no-op conflict, not a second row.
type WorkLogEntry struct {
	TaskKey string    `json:"task_key"`
	Origin  LogOrigin `json:"origin"`
	Text    string    `json:"text"`
	// Date has day granularity; the time component is ignored.
	Date time.Time `json:"date"`
}

// DateKey returns the day-granularity form of the entry date used for the
// uniqueness constraint.
func (e *WorkLogEntry) DateKey() string {
	return e.Date.Format("2006-01-02")
}
