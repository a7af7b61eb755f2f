package mapper

import (
	"testing"

	"github.com/steveyegge/bizzy/internal/beads"
)

func intPtr(n int) *int {
	return &n
}

func TestCardForIssue(t *testing.T) {
	tests := []struct {
		name     string
		issue    beads.Issue
		wantDesc string
	}{
		{
			name:     "with description",
			issue:    beads.Issue{ID: "bz-1", Title: "Fix bug", Description: "Crash on startup"},
			wantDesc: "Crash on startup\n\n[beads:bz-1]",
		},
		{
			name:     "without description",
			issue:    beads.Issue{ID: "bz-2", Title: "Add feature"},
			wantDesc: "[beads:bz-2]",
		},
		{
			name:     "multiline description",
			issue:    beads.Issue{ID: "bz-3", Title: "Docs", Description: "Line one\nLine two"},
			wantDesc: "Line one\nLine two\n\n[beads:bz-3]",
		},
	}

	m := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := m.CardForIssue(&tt.issue)
			if card.Title != tt.issue.Title {
				t.Errorf("Title = %q, want %q", card.Title, tt.issue.Title)
			}
			if card.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", card.Description, tt.wantDesc)
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	m := New(nil)
	ids := []string{"bz-1", "proj-abc-123", "x", "UPPER-9"}
	descriptions := []string{"", "some text", "text with [brackets] inside", "line\nbreaks\nhere"}

	for _, id := range ids {
		for _, desc := range descriptions {
			card := m.CardForIssue(&beads.Issue{ID: id, Title: "t", Description: desc})
			got := ExtractIssueID(card.Description)
			if got != id {
				t.Errorf("ExtractIssueID(CardForIssue(%q, %q)) = %q, want %q", id, desc, got, id)
			}
		}
	}
}

func TestExtractIssueID(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"marker only", "[beads:bz-42]", "bz-42"},
		{"marker after text", "Some description\n\n[beads:bz-7]", "bz-7"},
		{"marker mid-text", "before [beads:bz-9] after", "bz-9"},
		{"no marker", "just a description", ""},
		{"empty", "", ""},
		{"empty marker", "[beads:]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIssueID(tt.description); got != tt.want {
				t.Errorf("ExtractIssueID(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestColumnForStatus(t *testing.T) {
	m := New(nil)

	tests := []struct {
		status string
		want   string
	}{
		{"open", ""},
		{"in_progress", "Doing"},
		{"blocked", "Blocked"},
		{"closed", ""},
		{"someday", ""},
	}

	for _, tt := range tests {
		if got := m.ColumnForStatus(tt.status); got != tt.want {
			t.Errorf("ColumnForStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestColumnForStatus_CustomMapping(t *testing.T) {
	m := New(map[string]string{
		"in_progress": "WIP",
		"open":        "Backlog",
	})

	if got := m.ColumnForStatus("in_progress"); got != "WIP" {
		t.Errorf("ColumnForStatus(in_progress) = %q, want 'WIP'", got)
	}
	if got := m.ColumnForStatus("open"); got != "Backlog" {
		t.Errorf("ColumnForStatus(open) = %q, want 'Backlog'", got)
	}
	// Statuses outside the custom mapping resolve to no column.
	if got := m.ColumnForStatus("blocked"); got != "" {
		t.Errorf("ColumnForStatus(blocked) = %q, want ''", got)
	}
}

func TestColorForColumn(t *testing.T) {
	tests := []struct {
		column string
		want   string
	}{
		{"Doing", "var(--color-card-4)"},
		{"Blocked", "var(--color-card-8)"},
		{"Review", "var(--color-card-default)"},
		{"", "var(--color-card-default)"},
	}

	for _, tt := range tests {
		if got := ColorForColumn(tt.column); got != tt.want {
			t.Errorf("ColorForColumn(%q) = %q, want %q", tt.column, got, tt.want)
		}
	}
}

func TestTagsForIssue(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name  string
		issue beads.Issue
		want  []string
	}{
		{
			name:  "priority type and labels",
			issue: beads.Issue{Priority: intPtr(1), IssueType: "bug", Labels: []string{"backend", "urgent"}},
			want:  []string{"P1", "bug", "backend", "urgent"},
		},
		{
			name:  "priority zero still tags",
			issue: beads.Issue{Priority: intPtr(0)},
			want:  []string{"P0"},
		},
		{
			name:  "no priority",
			issue: beads.Issue{IssueType: "feature"},
			want:  []string{"feature"},
		},
		{
			name:  "duplicate label collapses",
			issue: beads.Issue{IssueType: "bug", Labels: []string{"bug", "ui"}},
			want:  []string{"bug", "ui"},
		},
		{
			name:  "nothing to tag",
			issue: beads.Issue{},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.TagsForIssue(&tt.issue)
			if len(got) != len(tt.want) {
				t.Fatalf("TagsForIssue() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("tags[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
