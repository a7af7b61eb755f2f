package fizzy

import (
	"errors"
	"fmt"
	"net/http"
)

// Identity is the authenticated user's view of their accounts, as
// returned by GET /my/identity.
type Identity struct {
	Accounts []Account `json:"accounts"`
}

// Account is one Fizzy account visible to the API token. Slugs may
// carry a leading slash depending on server version.
type Account struct {
	ID   string `json:"id,omitempty"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
	User User   `json:"user,omitempty"`
}

// User identifies the token holder within an account.
type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email_address,omitempty"`
}

// Board is a Fizzy kanban board.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Column is a named column on a board. Cards without a column sit in
// the board's triage area.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Card is a Fizzy card. Number is the account-wide card number used in
// URLs and API paths.
type Card struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	BoardID     string `json:"board_id,omitempty"`
}

// Tag is an account-level tag that can be toggled on cards.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// APIError is a non-2xx response from the Fizzy API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fizzy: %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("fizzy: %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the Fizzy API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
