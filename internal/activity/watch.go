package activity

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/logger"
)

// WatchSource derives events from filesystem notifications under a
// workspace: a created file counts as an open, a write as one change.
// It is the fallback for editors without an integration.
type WatchSource struct {
	root    string
	exclude []string
	logger  logger.Logger
}

// NewWatchSource watches root recursively. Any directory named .git, and
// any path under one of exclude, is ignored.
func NewWatchSource(root string, log logger.Logger, exclude ...string) *WatchSource {
	cleaned := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e != "" {
			cleaned = append(cleaned, filepath.Clean(e))
		}
	}
	return &WatchSource{
		root:    filepath.Clean(root),
		exclude: cleaned,
		logger:  log,
	}
}

// Run implements Source.
func (w *WatchSource) Run(ctx context.Context, out chan<- Event) error {
	defer close(out)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return scribeErrors.Wrap(err, "failed to create filesystem watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("Watching %s for changes", w.root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warning("Filesystem watcher error: %v", err)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			event, emit := w.translate(watcher, ev)
			if !emit {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (w *WatchSource) translate(watcher *fsnotify.Watcher, ev fsnotify.Event) (Event, bool) {
	if w.ignored(ev.Name) {
		return Event{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return Event{}, false
		}
		if info.IsDir() {
			if err := w.addTree(watcher, ev.Name); err != nil {
				w.logger.Warning("Cannot watch new directory %s: %v", ev.Name, err)
			}
			return Event{}, false
		}
		return Event{Kind: KindOpen, Path: ev.Name}, true

	case ev.Has(fsnotify.Write):
		return Event{Kind: KindChange, Path: ev.Name, Changes: 1}, true
	}

	return Event{}, false
}

// addTree watches dir and every directory below it.
func (w *WatchSource) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return scribeErrors.Wrapf(err, "cannot watch %s", dir)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return scribeErrors.Wrapf(err, "cannot watch %s", path)
		}
		return nil
	})
}

func (w *WatchSource) ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return true
		}
	}
	for _, e := range w.exclude {
		if path == e || strings.HasPrefix(path, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
