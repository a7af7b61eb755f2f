// Package daemon runs the watch loop behind `bizzy watch`.
//
// The daemon:
// 1. Runs one full sync on startup
// 2. Watches the .beads directory for database changes
// 3. Debounces bursts into a single re-sync
// 4. Handles graceful shutdown
//
// Change detection uses fsnotify by default. Setting Config.PollInterval
// switches to mtime polling for filesystems without inotify support
// (network mounts, some containers).
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFiles are the basenames inside .beads that signal issue changes.
// Everything else in the directory (WAL files, the sync ledger) is noise.
var watchFiles = []string{"beads.db", "issues.jsonl"}

// SyncFunc runs one full sync batch. The daemon serializes calls: a batch
// always runs to completion before the next trigger is considered.
type SyncFunc func(ctx context.Context) error

// Config holds configuration for the daemon.
type Config struct {
	// Debounce is how long the change queue must be quiet before a
	// re-sync fires. Rapid beads writes coalesce into one batch.
	Debounce time.Duration

	// PollInterval, when nonzero, replaces fsnotify with mtime polling
	// at this interval.
	PollInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Daemon watches the beads database and re-syncs on change.
type Daemon struct {
	beadsDir string
	run      SyncFunc
	config   *Config

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time // basename -> last change

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching beadsDir (the .beads directory) with
// default configuration. Use Start() to begin watching.
func New(beadsDir string, run SyncFunc) (*Daemon, error) {
	return NewWithConfig(beadsDir, run, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(beadsDir string, run SyncFunc, config *Config) (*Daemon, error) {
	if beadsDir == "" {
		return nil, fmt.Errorf("beadsDir cannot be empty")
	}
	if run == nil {
		return nil, fmt.Errorf("sync function cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		beadsDir: beadsDir,
		run:      run,
		config:   config,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins the watch loop.
//
// The daemon will:
// 1. Run an initial full sync
// 2. Watch for beads.db / issues.jsonl changes
// 3. Re-sync after each debounced change burst
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting watch daemon")

	if _, err := os.Stat(d.beadsDir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", d.beadsDir, err)
	}

	// The initial sync is best-effort. A flaky API at startup should not
	// kill a long-running watcher.
	d.runSync()

	if d.config.PollInterval > 0 {
		d.config.Logger.Printf("Polling %s every %s", d.beadsDir, d.config.PollInterval)
		d.wg.Add(1)
		go d.pollLoop()
	} else {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Add(d.beadsDir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", d.beadsDir, err)
		}
		d.watcher = watcher
		d.config.Logger.Printf("Watching: %s", d.beadsDir)

		d.wg.Add(1)
		go d.watchEvents()
	}

	d.wg.Add(1)
	go d.processQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon. A sync batch in flight runs to
// completion before Stop returns.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchEvents monitors filesystem events and queues changes.
func (d *Daemon) watchEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			name := filepath.Base(event.Name)
			if !isWatchFile(name) {
				continue
			}

			d.queueChange(name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// isWatchFile reports whether the basename is one the daemon cares about.
func isWatchFile(name string) bool {
	for _, f := range watchFiles {
		if name == f {
			return true
		}
	}
	return false
}

// queueChange records a change, restarting the debounce window.
func (d *Daemon) queueChange(name string) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	d.pending[name] = time.Now()
}

// processQueue fires a re-sync once a change burst has settled.
func (d *Daemon) processQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			names, ready := d.takePending()
			if !ready {
				continue
			}

			d.config.Logger.Printf("Change detected (%s), syncing", strings.Join(names, ", "))
			d.runSync()
		}
	}
}

// takePending drains the change queue if its newest entry is older than the
// debounce window. Changes arriving mid-burst keep pushing the sync back.
func (d *Daemon) takePending() ([]string, bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	if len(d.pending) == 0 {
		return nil, false
	}

	now := time.Now()
	for _, changedAt := range d.pending {
		if now.Sub(changedAt) < d.config.Debounce {
			return nil, false
		}
	}

	names := make([]string, 0, len(d.pending))
	for name := range d.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	d.pending = make(map[string]time.Time)

	return names, true
}

// runSync executes one sync batch. Errors are logged, not fatal: the next
// change gets a fresh attempt.
func (d *Daemon) runSync() {
	if err := d.run(d.ctx); err != nil {
		d.config.Logger.Printf("Sync error: %v", err)
	}
}
