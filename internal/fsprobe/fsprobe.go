// Package fsprobe checks whether fsnotify delivers events for a directory.
// Network mounts and some container overlays accept a watch but never fire,
// so the check writes a real file and waits for the event.
package fsprobe

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultTimeout is how long Probe waits for the first event.
const DefaultTimeout = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why.
type Result struct {
	FsnotifySupported bool
	Reason            string // set when unsupported
}

// Probe tests dir with DefaultTimeout.
func Probe(dir string) Result {
	return ProbeTimeout(dir, DefaultTimeout)
}

// ProbeTimeout creates and renames a temporary file in dir and reports
// whether fsnotify saw it within timeout.
func ProbeTimeout(dir string, timeout time.Duration) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{false, "not a directory"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{false, fmt.Sprintf("fsnotify unavailable: %v", err)}
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return Result{false, fmt.Sprintf("cannot watch directory: %v", err)}
	}

	f, err := os.CreateTemp(dir, ".recpush-probe-*")
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create probe file: %v", err)}
	}
	tmp := f.Name()
	f.Close()

	final := tmp + ".done"
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return Result{false, fmt.Sprintf("rename failed: %v", err)}
	}
	defer os.Remove(final)

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-w.Events:
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 {
				return Result{true, ""}
			}
		case err := <-w.Errors:
			return Result{false, fmt.Sprintf("watch error: %v", err)}
		case <-deadline:
			return Result{false, "no events received"}
		}
	}
}
