package daemon

import (
	"os"
	"path/filepath"
	"time"
)

// fileStamp captures what the poller compares between ticks. Size is
// included so an in-place rewrite with a coarse-grained mtime still
// registers.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// pollLoop checks the watched files' mtimes on a ticker. Used instead of
// fsnotify when Config.PollInterval is set.
func (d *Daemon) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	last := d.snapshotStamps()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			current := d.snapshotStamps()
			for _, name := range changedFiles(last, current) {
				d.queueChange(name)
			}
			last = current
		}
	}
}

// snapshotStamps stats each watched file. Missing files are absent from
// the map; appearing or disappearing counts as a change.
func (d *Daemon) snapshotStamps() map[string]fileStamp {
	stamps := make(map[string]fileStamp, len(watchFiles))
	for _, name := range watchFiles {
		info, err := os.Stat(filepath.Join(d.beadsDir, name))
		if err != nil {
			continue
		}
		stamps[name] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	return stamps
}

// changedFiles returns the basenames whose stamp differs between snapshots.
func changedFiles(last, current map[string]fileStamp) []string {
	var names []string
	for _, name := range watchFiles {
		prev, hadPrev := last[name]
		next, hasNext := current[name]
		if hadPrev != hasNext {
			names = append(names, name)
			continue
		}
		if hasNext && (!prev.modTime.Equal(next.modTime) || prev.size != next.size) {
			names = append(names, name)
		}
	}
	return names
}
