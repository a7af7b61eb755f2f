package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/engine"
	"github.com/steveyegge/bizzy/internal/ledger"
)

// fakeReader serves a fixed issue list, filtering closed issues the way
// the real store does.
type fakeReader struct {
	issues []*beads.Issue
}

func (r *fakeReader) ListIssues(ctx context.Context, includeClosed bool) ([]*beads.Issue, error) {
	if includeClosed {
		return r.issues, nil
	}
	var open []*beads.Issue
	for _, issue := range r.issues {
		if issue.Status != beads.StatusClosed {
			open = append(open, issue)
		}
	}
	return open, nil
}

func statusTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	state, err := ledger.Load(filepath.Join(t.TempDir(), ledger.FileName))
	if err != nil {
		t.Fatalf("ledger.Load() error: %v", err)
	}
	return state
}

func TestGetStatus_NothingSynced(t *testing.T) {
	reader := &fakeReader{issues: []*beads.Issue{
		{ID: "bz-1", Title: "First", Status: beads.StatusOpen},
		{ID: "bz-2", Title: "Second", Status: beads.StatusInProgress},
		{ID: "bz-3", Title: "Done already", Status: beads.StatusClosed},
	}}
	state := statusTestLedger(t)

	info, err := getStatus(context.Background(), reader, state)
	if err != nil {
		t.Fatalf("getStatus() error: %v", err)
	}

	if info.OpenIssues != 2 {
		t.Errorf("OpenIssues = %d, want 2", info.OpenIssues)
	}
	if info.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, want 3", info.TotalIssues)
	}
	if info.SyncedCount != 0 {
		t.Errorf("SyncedCount = %d, want 0", info.SyncedCount)
	}
	if info.LastSync != "" {
		t.Errorf("LastSync = %q, want empty", info.LastSync)
	}
	// Never-synced open issues all count as pending.
	if info.PendingSync != 2 {
		t.Errorf("PendingSync = %d, want 2", info.PendingSync)
	}
}

func TestGetStatus_PendingTracksChecksums(t *testing.T) {
	current := &beads.Issue{ID: "bz-1", Title: "Unchanged", Status: beads.StatusOpen}
	edited := &beads.Issue{ID: "bz-2", Title: "Retitled since sync", Status: beads.StatusOpen}
	reader := &fakeReader{issues: []*beads.Issue{current, edited}}

	state := statusTestLedger(t)
	checksum, err := engine.Checksum(current)
	if err != nil {
		t.Fatal(err)
	}
	if err := state.RecordSync(current.ID, 7, checksum); err != nil {
		t.Fatal(err)
	}
	// bz-2 was synced before its title changed.
	if err := state.RecordSync(edited.ID, 8, "stale-checksum"); err != nil {
		t.Fatal(err)
	}

	info, err := getStatus(context.Background(), reader, state)
	if err != nil {
		t.Fatalf("getStatus() error: %v", err)
	}

	if info.SyncedCount != 2 {
		t.Errorf("SyncedCount = %d, want 2", info.SyncedCount)
	}
	if info.PendingSync != 1 {
		t.Errorf("PendingSync = %d, want 1 (only the edited issue)", info.PendingSync)
	}
	if info.LastSync == "" {
		t.Error("LastSync empty after recorded syncs")
	}
}
