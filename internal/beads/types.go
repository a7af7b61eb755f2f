package beads

import "time"

// Issue statuses as stored by beads. The reader passes unknown values
// through untouched, so these are conventions, not a closed set.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusClosed     = "closed"
	StatusTombstone  = "tombstone"
)

// Issue is a single issue row from the beads database.
//
// Status holds the derived status, not the raw stored value: the reader
// folds the blocked-issues cache into it on every read (see Reader).
// Priority is nil when the row has no priority set.
type Issue struct {
	ID          string
	Title       string
	Description string
	Status      string
	Priority    *int
	IssueType   string
	Labels      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// Dependency is a single dependency edge for an issue.
type Dependency struct {
	IssueID     string
	DependsOnID string
	Type        string
	CreatedAt   time.Time
}
