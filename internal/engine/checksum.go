package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/steveyegge/bizzy/internal/beads"
)

// checksumLength is the number of hex characters kept from the digest.
// Collision resistance is irrelevant here; the checksum only answers "did
// this issue's visible content change since the last sync".
const checksumLength = 16

// Checksum digests the content-defining fields of an issue: id, title,
// description, derived status, priority, issue_type, and labels. Fields
// excluded (timestamps, dependency data) never trigger a re-sync. The
// encoding is a sorted-key JSON object, so the result is independent of
// field ordering.
func Checksum(issue *beads.Issue) (string, error) {
	payload := map[string]any{
		"id":          issue.ID,
		"title":       issue.Title,
		"description": issue.Description,
		"status":      issue.Status,
		"priority":    issue.Priority,
		"issue_type":  issue.IssueType,
		"labels":      issue.Labels,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode checksum payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:checksumLength], nil
}
