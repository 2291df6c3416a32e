// Package watch re-reconciles a project's package.json whenever it changes
// on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
)

// DefaultDebounce coalesces the burst of events one save produces.
const DefaultDebounce = 200 * time.Millisecond

// Change is the outcome of one re-open.
type Change struct {
	Manifest *manifest.Manifest
	Fixes    []manifest.Fix
	Err      error
}

// Watcher watches the directory rather than the file, so replacements by
// rename (ours and most editors') are seen.
type Watcher struct {
	Dir      string
	Policy   manifest.Policy
	Debounce time.Duration

	// OnChange is called from Run's goroutine after every settled change.
	OnChange func(Change)
}

// Run blocks until ctx is done or the watcher fails. The manifest is opened
// once up front, so a project that is already broken is fixed immediately.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	logx.Debugf("watch: watching %s", w.Dir)

	w.reopen()

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logx.Debugf("watch: %s", ev)
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logx.Warnf("watch: event overflow, re-reading")
				timer.Reset(debounce)
				continue
			}
			return fmt.Errorf("watch failed: %w", err)
		case <-timer.C:
			w.reopen()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != manifest.Filename {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// reopen runs Open, which writes back only when something was fixed. That
// write triggers one more event whose re-open finds nothing to fix, which
// ends the cycle.
func (w *Watcher) reopen() {
	m, fixes, err := w.Policy.Open(w.Dir)
	if w.OnChange != nil {
		w.OnChange(Change{Manifest: m, Fixes: fixes, Err: err})
	}
}
