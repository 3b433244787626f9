package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store when any of its Bundle's files change on disk.
// Bursts of events (editors writing temp files, copying several artifacts)
// collapse into one reload after the debounce period.
type Watcher struct {
	store    *Store
	fsw      *fsnotify.Watcher
	debounce time.Duration
	watched  map[string]bool // dirs added to fsw
	files    map[string]bool // artifact paths of interest
}

// NewWatcher creates a Watcher for the store's current Bundle.
// A debounce of 0 uses the default (500ms).
func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w := &Watcher{
		store:    store,
		fsw:      fsw,
		debounce: debounce,
		watched:  make(map[string]bool),
	}
	if err := w.refresh(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// refresh re-reads the set of artifact files from the current Bundle and
// watches their directories. Directories are watched instead of files so
// atomic replace-by-rename is seen.
func (w *Watcher) refresh() error {
	b := w.store.Current()
	if b == nil {
		return errClosed
	}
	files := make(map[string]bool)
	for _, p := range b.Paths() {
		p = filepath.Clean(p)
		files[p] = true
		dir := filepath.Dir(p)
		if w.watched[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watcher: watch %s: %w", dir, err)
		}
		w.watched[dir] = true
	}
	w.files = files
	return nil
}

// Run watches until ctx is cancelled. Reload failures are logged and the
// previous Bundle keeps serving.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("artifact changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.store.Reload(); err != nil {
				slog.Error("artifact reload failed; keeping previous bundle", "error", err)
				continue
			}
			if err := w.refresh(); err != nil {
				slog.Warn("watcher refresh failed", "error", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
