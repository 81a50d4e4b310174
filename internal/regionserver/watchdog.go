package regionserver

import (
	"os"
	"path/filepath"
	"sync/atomic"
)

// Watchdog implements the filesystem-health check of spec.md §4.9:
// checkFileSystem() is called after every IO failure anywhere in the
// process, pings the filesystem, and on failure sets fsOk=false and
// calls abort(). The fsOk flag additionally gates the heartbeat loop's
// instruction admission (spec §4.1 step 4).
type Watchdog struct {
	rootDir string
	fsOk    atomic.Bool
	abort   func(reason string)
}

// NewWatchdog constructs a Watchdog probing rootDir, starting healthy.
func NewWatchdog(rootDir string, abort func(string)) *Watchdog {
	w := &Watchdog{rootDir: rootDir, abort: abort}
	w.fsOk.Store(true)
	return w
}

// Check pings the filesystem (a lightweight stat+temp-file probe of the
// root directory, standing in for the real DFS client's health check
// this core treats as an external collaborator) and returns the
// resulting health. On failure it calls abort exactly once per
// transition to unhealthy.
func (w *Watchdog) Check() bool {
	if err := w.probe(); err != nil {
		if w.fsOk.CompareAndSwap(true, false) && w.abort != nil {
			w.abort("filesystem unavailable: " + err.Error())
		}
		return false
	}
	w.fsOk.Store(true)
	return true
}

func (w *Watchdog) probe() error {
	if _, err := os.Stat(w.rootDir); err != nil {
		return err
	}
	probe := filepath.Join(w.rootDir, ".watchdog-probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_ = f.Close()
	return os.Remove(probe)
}

// Healthy reports the last known health without re-probing.
func (w *Watchdog) Healthy() bool { return w.fsOk.Load() }
