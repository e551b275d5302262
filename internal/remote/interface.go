// Package remote talks to the issue tracker that is the system of record.
//
// The reconciliation core only ever speaks in board column ids; this package
// owns authentication and the translation between columns and the tracker's
// own status and transition vocabulary.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// ErrGuidedScreenRequired signals that the requested transition needs a
// guided screen on the remote tracker that the API cannot drive. Callers
// treat it as a distinct terminal failure with its own user message.
var ErrGuidedScreenRequired = errors.New("transition requires a guided remote screen")

// ErrNoMatchingTransition signals that the remote workflow offers no
// transition landing in the requested column.
var ErrNoMatchingTransition = errors.New("no remote transition reaches the target column")

// Board is a remote board discovered for the configured project.
type Board struct {
	ID   int
	Name string
}

// Sprint is a remote sprint. The zero ID stands for the backlog.
type Sprint struct {
	ID    int
	Name  string
	State string // active, future, closed
}

// BacklogSprint is the pseudo-sprint used to fetch backlog issues.
var BacklogSprint = Sprint{ID: 0, Name: "backlog"}

// Issue is a work item as the remote tracker reports it. Status is the raw
// remote status text; the board layer maps it onto a column.
type Issue struct {
	Key         string
	Summary     string
	Description string
	Type        string
	Status      string
	Sprint      string
	Priority    int
	DueDate     *time.Time
	Assignee    string
	Links       []IssueLink
	Updated     time.Time
}

// IssueLink is a typed relation between two remote issues.
type IssueLink struct {
	Type string
	Key  string
}

// TransitionResult reports the outcome of a remote transition call.
type TransitionResult struct {
	Success bool
	// NewRemoteStatus is the status text the issue landed in, when known.
	NewRemoteStatus string
	// ErrorCode distinguishes failure classes for the user message:
	// "guided-screen-required", "no-matching-transition" or "remote-error".
	ErrorCode string
}

// Transition error codes.
const (
	CodeGuidedScreenRequired = "guided-screen-required"
	CodeNoMatchingTransition = "no-matching-transition"
	CodeRemoteError          = "remote-error"
)

// Client is the remote tracker contract consumed by the sync scheduler and
// the reconciliation orchestrator.
//
// All calls honor ctx for caller-defined timeouts; a timeout is treated by
// callers identically to an explicit remote failure.
type Client interface {
	// DiscoverBoard finds the board for the configured project.
	DiscoverBoard(ctx context.Context) (*Board, error)

	// DiscoverSprint finds the most relevant sprint on the board: the
	// active sprint if one exists, otherwise the newest future sprint,
	// otherwise the backlog pseudo-sprint.
	DiscoverSprint(ctx context.Context, boardID int) (*Sprint, error)

	// ListIssues fetches every issue in the sprint. A sprint with ID 0
	// fetches the backlog instead.
	ListIssues(ctx context.Context, sprint *Sprint) ([]*Issue, error)

	// ListIssuesChangedSince fetches only the sprint's issues updated at or
	// after the given instant.
	ListIssuesChangedSince(ctx context.Context, sprint *Sprint, since time.Time) ([]*Issue, error)

	// TransitionIssue asks the tracker to move the issue into whatever
	// remote status corresponds to the target column. The client resolves
	// the column back into the tracker's transition vocabulary.
	TransitionIssue(ctx context.Context, key string, target board.ColumnID) (*TransitionResult, error)
}
