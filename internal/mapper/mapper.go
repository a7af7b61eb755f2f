// Package mapper holds the transformation rules between beads issues and
// Fizzy cards: card content, status-to-column placement, column colors, and
// the tag set derived from issue metadata.
//
// Every card description carries a trailing [beads:<id>] marker. The marker
// is the only link between a card and its source issue that survives on the
// Fizzy side, so building it and parsing it back must stay in lockstep.
package mapper

import (
	"fmt"
	"regexp"

	"github.com/steveyegge/bizzy/internal/beads"
)

// Column names for active work states. Open issues stay in Fizzy's built-in
// inbox (the inbox is the backlog) and closed issues use Fizzy's built-in
// Done via the closure API, so neither needs a column of its own.
const (
	ColumnDoing   = "Doing"
	ColumnBlocked = "Blocked"
)

const (
	colorDoing   = "var(--color-card-4)" // lime
	colorBlocked = "var(--color-card-8)" // pink
	colorDefault = "var(--color-card-default)"
)

var markerPattern = regexp.MustCompile(`\[beads:(\S+)\]`)

// CardPayload is the content half of a Fizzy card.
type CardPayload struct {
	Title       string
	Description string
}

// DefaultColumns returns the default status→column mapping. Statuses absent
// from the mapping leave the card untriaged.
func DefaultColumns() map[string]string {
	return map[string]string{
		beads.StatusInProgress: ColumnDoing,
		beads.StatusBlocked:    ColumnBlocked,
	}
}

// Mapper transforms beads issues into Fizzy card content.
type Mapper struct {
	columns map[string]string
}

// New returns a Mapper using the given status-to-column mapping, or
// DefaultColumns when the mapping is empty. A config file with no columns
// section gets the defaults.
func New(columns map[string]string) *Mapper {
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	return &Mapper{columns: columns}
}

// CardForIssue builds the card payload for an issue: title verbatim,
// description with the [beads:<id>] marker appended after a blank line.
// The marker is always present, even when the issue has no description.
func (m *Mapper) CardForIssue(issue *beads.Issue) CardPayload {
	marker := Marker(issue.ID)
	description := marker
	if issue.Description != "" {
		description = issue.Description + "\n\n" + marker
	}
	return CardPayload{Title: issue.Title, Description: description}
}

// ColumnForStatus returns the column name for a derived status, or "" for
// statuses that keep the card in Fizzy's built-in columns.
func (m *Mapper) ColumnForStatus(status string) string {
	return m.columns[status]
}

// WorkColumns returns the mapped column names for the active work statuses
// (in_progress, blocked), in that order. These are the columns the engine
// bootstraps on the board.
func (m *Mapper) WorkColumns() []string {
	var names []string
	for _, status := range []string{beads.StatusInProgress, beads.StatusBlocked} {
		if name := m.columns[status]; name != "" {
			names = append(names, name)
		}
	}
	return names
}

// TagsForIssue returns the tags for a card: "P<priority>" when the issue
// has a priority, the issue type, and each label, deduplicated in first-seen
// order.
func (m *Mapper) TagsForIssue(issue *beads.Issue) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	if issue.Priority != nil {
		add(fmt.Sprintf("P%d", *issue.Priority))
	}
	add(issue.IssueType)
	for _, label := range issue.Labels {
		add(label)
	}

	return tags
}

// ColorForColumn returns the Fizzy color token for a column name. Only the
// two bootstrapped columns have reserved colors.
func ColorForColumn(name string) string {
	switch name {
	case ColumnDoing:
		return colorDoing
	case ColumnBlocked:
		return colorBlocked
	}
	return colorDefault
}

// Marker returns the literal [beads:<id>] marker embedded in card
// descriptions.
func Marker(id string) string {
	return "[beads:" + id + "]"
}

// ExtractIssueID parses the issue id out of a card description's marker.
// Returns "" when no marker is present.
func ExtractIssueID(description string) string {
	match := markerPattern.FindStringSubmatch(description)
	if match == nil {
		return ""
	}
	return match[1]
}
