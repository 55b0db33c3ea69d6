package fileops

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates whitelist coverage when a file changes on disk
// out-of-band (another process, a git checkout, an editor save) so a
// stale read-coverage claim can't authorize an overwrite. Watches
// individual files' containing directories rather than whole trees.
type Watcher struct {
	w         *fsnotify.Watcher
	whitelist *Whitelist
	watched   map[string]bool
}

// NewWatcher starts a watcher bound to whitelist. Call Close when done.
func NewWatcher(whitelist *Whitelist) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watcher := &Watcher{w: fw, whitelist: whitelist, watched: make(map[string]bool)}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Content that still matches the recorded hash (such as the
			// Service's own write, recorded right after it) keeps its coverage.
			if hash, _, err := hashFile(ev.Name); err == nil {
				if e, ok := w.whitelist.Entry(ev.Name); ok && e.ContentHash == hash {
					continue
				}
			}
			w.whitelist.Invalidate(ev.Name)
		case _, ok := <-w.w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Add starts watching path's containing directory (fsnotify watches
// directories, not bare files, to survive editor save-via-rename) if it
// isn't already watched.
func (w *Watcher) Add(path string) error {
	dir := filepath.Dir(path)
	if w.watched[dir] {
		return nil
	}
	if err := w.w.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}
