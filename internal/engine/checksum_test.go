package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/steveyegge/bizzy/internal/beads"
)

func checksumIssue() *beads.Issue {
	priority := 1
	return &beads.Issue{
		ID:          "bz-1",
		Title:       "Fix login flow",
		Description: "Session cookie expires too early",
		Status:      beads.StatusOpen,
		Priority:    &priority,
		IssueType:   "bug",
		Labels:      []string{"auth", "backend"},
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestChecksumDeterministic(t *testing.T) {
	first, err := Checksum(checksumIssue())
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	second, err := Checksum(checksumIssue())
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if first != second {
		t.Errorf("checksums differ for identical content: %s vs %s", first, second)
	}
}

func TestChecksumFormat(t *testing.T) {
	sum, err := Checksum(checksumIssue())
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if len(sum) != 16 {
		t.Errorf("checksum length = %d, want 16", len(sum))
	}
	for _, r := range sum {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("checksum contains non-hex character %q: %s", r, sum)
		}
	}
}

func TestChecksumTracksContent(t *testing.T) {
	base, err := Checksum(checksumIssue())
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}

	two := 2
	tests := []struct {
		name   string
		mutate func(*beads.Issue)
	}{
		{"id", func(i *beads.Issue) { i.ID = "bz-2" }},
		{"title", func(i *beads.Issue) { i.Title = "Fix logout flow" }},
		{"description", func(i *beads.Issue) { i.Description = "Session cookie never expires" }},
		{"status", func(i *beads.Issue) { i.Status = beads.StatusClosed }},
		{"priority", func(i *beads.Issue) { i.Priority = &two }},
		{"priority cleared", func(i *beads.Issue) { i.Priority = nil }},
		{"issue type", func(i *beads.Issue) { i.IssueType = "feature" }},
		{"labels", func(i *beads.Issue) { i.Labels = []string{"auth"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := checksumIssue()
			tt.mutate(issue)
			sum, err := Checksum(issue)
			if err != nil {
				t.Fatalf("Checksum() error = %v", err)
			}
			if sum == base {
				t.Errorf("checksum unchanged after mutating %s", tt.name)
			}
		})
	}
}

func TestChecksumIgnoresTimestamps(t *testing.T) {
	base, err := Checksum(checksumIssue())
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}

	issue := checksumIssue()
	issue.CreatedAt = issue.CreatedAt.Add(time.Hour)
	issue.UpdatedAt = issue.UpdatedAt.Add(48 * time.Hour)
	closedAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	issue.ClosedAt = &closedAt

	sum, err := Checksum(issue)
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if sum != base {
		t.Errorf("checksum changed when only timestamps changed: %s vs %s", sum, base)
	}
}
