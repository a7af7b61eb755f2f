// Package beads provides read-only access to a beads issue database.
//
// A beads workspace keeps its state under a .beads/ directory; the SQLite
// database inside it is owned and written by the bd tool. This package only
// ever reads from it. The one piece of logic layered on top of the raw rows
// is status derivation: bd maintains a blocked_issues_cache table listing
// issues blocked by unresolved dependencies, and the effective status of an
// issue depends on both its stored status and its presence in that cache.
// The derivation runs on every read so callers always see current state.
package beads

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrDatabaseNotFound indicates the beads database does not exist at the
// expected location. The reader never creates one.
var ErrDatabaseNotFound = errors.New("beads database not found")

// Dir returns the .beads directory under the given workspace root.
func Dir(root string) string {
	return filepath.Join(root, ".beads")
}

// DatabasePath returns the path of the beads database under the given
// workspace root.
func DatabasePath(root string) string {
	return filepath.Join(root, ".beads", "beads.db")
}

// Reader reads issues from a beads database.
//
// The caller MUST call Close() when done.
type Reader struct {
	conn *sql.DB
	path string
}

// Open opens the beads database under the given workspace root.
//
// The database must already exist; a missing database is reported as
// ErrDatabaseNotFound rather than being created, since the database is
// owned by bd and an empty one here would only mask a misconfigured path.
func Open(root string) (*Reader, error) {
	path := DatabasePath(root)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s (run 'bd init' first)", ErrDatabaseNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat beads database: %w", err)
	}

	// Read-only mode: this tool must never mutate the issue store.
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open beads database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping beads database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// bd may hold the write lock while syncing its own state.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &Reader{conn: conn, path: path}, nil
}

// Path returns the database file path this reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if r.conn == nil {
		return nil
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close beads database: %w", err)
	}
	r.conn = nil
	return nil
}
