package main

import (
	"testing"
	"time"

	"github.com/steveyegge/bizzy/internal/beads"
)

func TestParseSince_AbsoluteStamps(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"rfc3339", "2026-08-20T10:30:00Z", time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)},
		{"date only", "2026-08-20", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSince(tt.expr, now)
			if err != nil {
				t.Fatalf("parseSince(%q) error: %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseSince(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseSince_NaturalLanguage(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("yesterday", now)
	if err != nil {
		t.Fatalf("parseSince(yesterday) error: %v", err)
	}
	if got.IsZero() {
		t.Fatal("parseSince(yesterday) returned the zero time")
	}
	if !got.Before(now) {
		t.Errorf("parseSince(yesterday) = %v, want a time before %v", got, now)
	}
}

func TestParseSince_Unrecognized(t *testing.T) {
	now := time.Now()

	if _, err := parseSince("purple monkey dishwasher", now); err == nil {
		t.Error("parseSince() accepted gibberish")
	}
}

func TestOpenIssues(t *testing.T) {
	issues := []*beads.Issue{
		{ID: "bz-1", Status: beads.StatusOpen},
		{ID: "bz-2", Status: beads.StatusClosed},
		{ID: "bz-3", Status: beads.StatusInProgress},
		{ID: "bz-4", Status: beads.StatusBlocked},
		{ID: "bz-5", Status: beads.StatusClosed},
	}

	open := openIssues(issues)
	if len(open) != 3 {
		t.Fatalf("len(openIssues()) = %d, want 3", len(open))
	}
	for _, issue := range open {
		if issue.Status == beads.StatusClosed {
			t.Errorf("closed issue %s survived the filter", issue.ID)
		}
	}
}

func TestOpenIssues_Empty(t *testing.T) {
	if got := openIssues(nil); len(got) != 0 {
		t.Errorf("openIssues(nil) = %v, want empty", got)
	}
}
