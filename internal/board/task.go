package board

import "time"

// IssueKind selects which workflow ruleset applies to a task.
type IssueKind string

const (
	// KindStory covers story-like work items (stories, features, tasks).
	KindStory IssueKind = "story"
	// KindDefect covers defect-like work items (bugs, incidents).
	KindDefect IssueKind = "defect"
	// KindOther covers everything else; no workflow constraint is imposed.
	KindOther IssueKind = "other"
)

// KindFromRemote maps a remote issue-type name onto a workflow kind.
// Unrecognized types get KindOther, which imposes no workflow rules.
func KindFromRemote(issueType string) IssueKind {
	switch issueType {
	case "Story", "Task", "Feature", "故事", "任务":
		return KindStory
	case "Bug", "Defect", "缺陷", "故障":
		return KindDefect
	default:
		return KindOther
	}
}

// LinkType categorizes a relation between two tasks.
type LinkType string

const (
	LinkBlocks    LinkType = "blocks"
	LinkRelated   LinkType = "related"
	LinkDuplicate LinkType = "duplicates"
	LinkParent    LinkType = "parent"
)

// TaskLink is a typed reference from one task to another.
type TaskLink struct {
	Type LinkType `json:"type"`
	Key  string   `json:"key"`
}

// Task is the unit of work tracked on the board.
//
// The Column field is always a member of the fixed column set; remote
// statuses that fail to map are coerced to the backlog column by the status
// mapper before a Task is ever constructed. Swimlane membership is derived,
// never stored (see Classify).
type Task struct {
	// Key is the stable identity, assigned by the remote tracker
	// (e.g. "PROJ-42") or generated locally for board-only tasks.
	Key string `json:"key"`

	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Kind        IssueKind `json:"kind"`
	Column      ColumnID  `json:"column"`

	// Sprint is the origin sprint label, or "backlog" for unscheduled work.
	Sprint string `json:"sprint"`

	// Priority tier, 0-4 (0 highest).
	Priority int `json:"priority"`

	DueDate  *time.Time `json:"due_date,omitempty"`
	Assignee string     `json:"assignee,omitempty"`

	Links []TaskLink `json:"links,omitempty"`

	// RemoteStatus is the raw status text last seen from the tracker,
	// kept for diagnostics only.
	RemoteStatus string `json:"remote_status,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the task's column is in the terminal set. The
// completion flag is derived from column membership, never stored.
func (t *Task) Done() bool {
	return Terminal(t.Column)
}

// Clone returns a deep copy of the task, used as the rollback snapshot for
// optimistic moves.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.Links != nil {
		c.Links = append([]TaskLink(nil), t.Links...)
	}
	return &c
}
