// Package engine orchestrates the one-way sync from beads issues to Fizzy
// cards: change detection, create/update/skip decisions, column placement,
// closure, and tagging.
package engine

import (
	"context"
	"log"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/fizzy"
)

// Action classifies the outcome of syncing one issue.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionError   Action = "error"
)

// Outcome is the result of syncing a single issue.
type Outcome struct {
	Action     Action `json:"action"`
	IssueID    string `json:"issue_id"`
	CardNumber int    `json:"card_number,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

// Result aggregates one batch. Errors preserves per-issue order.
type Result struct {
	Created int       `json:"created"`
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Errors  []Outcome `json:"errors"`
}

// Total returns the number of issues processed in the batch.
func (r *Result) Total() int {
	return r.Created + r.Updated + r.Skipped + len(r.Errors)
}

// Config carries the board binding and feature toggles the engine honors.
type Config struct {
	// BoardID is the Fizzy board all cards are created on.
	BoardID string

	// AutoCreateColumns makes EnsureColumns create the work columns when
	// they are missing. When false the column cache is populated from
	// whatever the board already has.
	AutoCreateColumns bool

	// PriorityAsTag and TypeAsTag gate the tagging step on card creation.
	PriorityAsTag bool
	TypeAsTag     bool

	// OnOutcome, when set, receives every per-issue outcome of a batch
	// as it settles. Used by watch mode to stream sync events.
	OnOutcome func(Outcome)

	// Logger defaults to stderr with a [sync] prefix when nil.
	Logger *log.Logger
}

// Client is the slice of the Fizzy API the engine drives.
type Client interface {
	ListColumns(ctx context.Context, boardID string) ([]fizzy.Column, error)
	CreateColumn(ctx context.Context, boardID, name, color string) (*fizzy.Column, error)
	CreateCard(ctx context.Context, boardID, title, description string) (*fizzy.Card, error)
	UpdateCard(ctx context.Context, number int, title, description *string) (*fizzy.Card, error)
	TriageCard(ctx context.Context, number int, columnID string) error
	UntriageCard(ctx context.Context, number int) error
	CloseCard(ctx context.Context, number int) error
	ReopenCard(ctx context.Context, number int) error
	ToggleTag(ctx context.Context, number int, tagTitle string) error
}

// Reader is the slice of the beads store the engine reads from.
// *beads.Reader satisfies it.
type Reader interface {
	ListIssues(ctx context.Context, includeClosed bool) ([]*beads.Issue, error)
}

// Syncer pushes beads issues to a Fizzy board.
//
// The column cache starts empty. SyncAll populates it itself; callers
// syncing single issues outside a batch must call EnsureColumns first or
// cards will not be placed into columns.
type Syncer interface {
	// SyncAll syncs every issue from the reader in order and returns the
	// batch result. Individual issue failures are collected, not raised;
	// only batch-level preconditions (listing issues, column bootstrap)
	// return an error.
	SyncAll(ctx context.Context, includeClosed, dryRun bool) (*Result, error)

	// SyncBatch syncs the given issues in order, with the same column
	// bootstrap and tallying as SyncAll. Callers use it to sync a
	// pre-filtered subset, such as issues changed since an instant.
	SyncBatch(ctx context.Context, issues []*beads.Issue, dryRun bool) (*Result, error)

	// SyncIssue syncs one issue and reports what happened. In dry-run
	// mode the issue is classified (created/updated/skipped) without any
	// remote calls or ledger writes.
	SyncIssue(ctx context.Context, issue *beads.Issue, dryRun bool) Outcome

	// EnsureColumns loads the board's columns into the cache, creating
	// the missing work columns first when configured to.
	EnsureColumns(ctx context.Context) error
}
