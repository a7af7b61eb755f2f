package beads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const issueColumns = "id, title, description, status, priority, issue_type, labels, created_at, updated_at, closed_at"

// ListIssues returns issues ordered by priority then creation time.
// Closed issues are excluded unless includeClosed is set.
func (r *Reader) ListIssues(ctx context.Context, includeClosed bool) ([]*Issue, error) {
	query := "SELECT " + issueColumns + " FROM issues"
	if !includeClosed {
		query += " WHERE status != 'closed'"
	}
	query += " ORDER BY priority, created_at"

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}

	blocked, err := r.blockedIDs(ctx)
	if err != nil {
		return nil, err
	}
	deriveStatus(issues, blocked)

	return issues, nil
}

// GetIssue returns a single issue by ID, or nil if no such issue exists.
func (r *Reader) GetIssue(ctx context.Context, id string) (*Issue, error) {
	row := r.conn.QueryRowContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE id = ?", id)

	issue, err := scanIssue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query issue %s: %w", id, err)
	}

	blocked, err := r.blockedIDs(ctx)
	if err != nil {
		return nil, err
	}
	deriveStatus([]*Issue{issue}, blocked)

	return issue, nil
}

// ChangedSince returns issues updated after the given time, ordered by
// update time ascending.
func (r *Reader) ChangedSince(ctx context.Context, since time.Time) ([]*Issue, error) {
	rows, err := r.conn.QueryContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE updated_at > ? ORDER BY updated_at",
		since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query changed issues: %w", err)
	}
	defer rows.Close()

	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}

	blocked, err := r.blockedIDs(ctx)
	if err != nil {
		return nil, err
	}
	deriveStatus(issues, blocked)

	return issues, nil
}

// ListDependencies returns the dependency edges recorded for an issue.
func (r *Reader) ListDependencies(ctx context.Context, issueID string) ([]*Dependency, error) {
	rows, err := r.conn.QueryContext(ctx,
		"SELECT issue_id, depends_on_id, type, created_at FROM dependencies WHERE issue_id = ?",
		issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies for %s: %w", issueID, err)
	}
	defer rows.Close()

	var deps []*Dependency
	for rows.Next() {
		var dep Dependency
		var createdAt sql.NullString
		if err := rows.Scan(&dep.IssueID, &dep.DependsOnID, &dep.Type, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		dep.CreatedAt = parseTimeString(createdAt.String)
		deps = append(deps, &dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}

	return deps, nil
}

// blockedIDs returns the set of issue IDs currently blocked by unresolved
// dependencies, per bd's blocked_issues_cache. Databases created by older
// beads versions have no such table; that returns a nil set, which disables
// derivation so raw statuses pass through as stored.
func (r *Reader) blockedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.conn.QueryContext(ctx, "SELECT issue_id FROM blocked_issues_cache")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query blocked cache: %w", err)
	}
	defer rows.Close()

	blocked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan blocked id: %w", err)
		}
		blocked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked cache: %w", err)
	}

	return blocked, nil
}

// deriveStatus folds the blocked set into each issue's status. An issue in
// the blocked set reads as blocked unless it is already terminal; a stored
// "blocked" with no cache entry reverts to open, since the flag is stale
// once the blocking dependency resolves. A nil set (no cache table) leaves
// every status as stored.
func deriveStatus(issues []*Issue, blocked map[string]bool) {
	if blocked == nil {
		return
	}
	for _, issue := range issues {
		if blocked[issue.ID] {
			if issue.Status != StatusClosed && issue.Status != StatusTombstone {
				issue.Status = StatusBlocked
			}
		} else if issue.Status == StatusBlocked {
			issue.Status = StatusOpen
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (*Issue, error) {
	var issue Issue
	var description, issueType, labels sql.NullString
	var priority sql.NullInt64
	var createdAt, updatedAt, closedAt sql.NullString

	err := row.Scan(
		&issue.ID,
		&issue.Title,
		&description,
		&issue.Status,
		&priority,
		&issueType,
		&labels,
		&createdAt,
		&updatedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}

	issue.Description = description.String
	issue.IssueType = issueType.String
	if priority.Valid {
		p := int(priority.Int64)
		issue.Priority = &p
	}
	issue.Labels = decodeLabels(labels.String)
	issue.CreatedAt = parseTimeString(createdAt.String)
	issue.UpdatedAt = parseTimeString(updatedAt.String)
	issue.ClosedAt = parseNullableTime(closedAt)

	return &issue, nil
}

func scanIssues(rows *sql.Rows) ([]*Issue, error) {
	var issues []*Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return issues, nil
}

// decodeLabels parses the JSON-encoded labels column. Invalid or empty
// JSON reads as no labels.
func decodeLabels(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(s), &labels); err != nil {
		return nil
	}
	return labels
}

// parseTimeString parses a timestamp from a TEXT column. beads has written
// both RFC3339 and SQLite's native datetime format over time.
func parseTimeString(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTimeString(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}
