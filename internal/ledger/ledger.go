// Package ledger persists which beads issues have been synced to which
// Fizzy cards.
//
// The ledger file lives next to the beads database as
// .beads/.fizzy-sync-state.json. It is the sync engine's idempotence
// authority: an issue whose recorded checksum matches its current content
// is skipped without any remote calls. Entries are only ever added or
// overwritten, never removed; deleting a card on the Fizzy side is a manual
// operation outside this tool.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the ledger file's name inside the .beads directory.
const FileName = ".fizzy-sync-state.json"

// ErrCorrupt indicates the ledger file exists but does not parse. It is a
// load-time failure: treating corruption as empty state would re-create
// every card on the board.
var ErrCorrupt = errors.New("sync state file is corrupt")

// Entry records one synced issue.
type Entry struct {
	CardNumber int    `json:"card_number"`
	Checksum   string `json:"checksum"`
	SyncedAt   string `json:"synced_at"`
}

type state struct {
	SyncedIssues map[string]*Entry `json:"synced_issues"`
	LastSync     *string           `json:"last_sync"`
}

// Ledger tracks issue→card sync state and persists it as a single JSON
// document. It is not safe for concurrent use; the sync engine owns it from
// a single goroutine.
type Ledger struct {
	path  string
	state state
}

// DefaultPath returns the ledger path for a beads workspace root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".beads", FileName)
}

// Load reads the ledger at path. A missing file loads as an empty ledger;
// a file that exists but does not parse fails with ErrCorrupt.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:  path,
		state: state{SyncedIssues: make(map[string]*Entry)},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	if err := json.Unmarshal(data, &l.state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if l.state.SyncedIssues == nil {
		l.state.SyncedIssues = make(map[string]*Entry)
	}

	return l, nil
}

// Path returns the file path this ledger persists to.
func (l *Ledger) Path() string {
	return l.path
}

// IsSynced reports whether an issue has a ledger entry.
func (l *Ledger) IsSynced(issueID string) bool {
	_, ok := l.state.SyncedIssues[issueID]
	return ok
}

// CardNumberFor returns the card number recorded for an issue.
func (l *Ledger) CardNumberFor(issueID string) (int, bool) {
	entry, ok := l.state.SyncedIssues[issueID]
	if !ok {
		return 0, false
	}
	return entry.CardNumber, true
}

// ChecksumFor returns the content checksum recorded for an issue.
func (l *Ledger) ChecksumFor(issueID string) (string, bool) {
	entry, ok := l.state.SyncedIssues[issueID]
	if !ok {
		return "", false
	}
	return entry.Checksum, true
}

// RecordSync records a successful sync for an issue and persists the whole
// ledger. The entry and the global last-sync timestamp move together.
func (l *Ledger) RecordSync(issueID string, cardNumber int, checksum string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	l.state.SyncedIssues[issueID] = &Entry{
		CardNumber: cardNumber,
		Checksum:   checksum,
		SyncedAt:   now,
	}
	l.state.LastSync = &now
	return l.Save()
}

// Count returns the number of issues ever synced.
func (l *Ledger) Count() int {
	return len(l.state.SyncedIssues)
}

// LastSync returns the time of the last recorded sync, or nil if nothing
// has been synced yet.
func (l *Ledger) LastSync() *time.Time {
	if l.state.LastSync == nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, *l.state.LastSync); err == nil {
			return &t
		}
	}
	return nil
}

// Save writes the ledger to disk atomically via a temp file rename, so a
// reader never observes a partially-written document.
func (l *Ledger) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(&l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp state file: %w", err)
	}

	return nil
}
