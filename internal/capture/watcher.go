package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/snapzoo/internal/logger"
)

// DefaultSettle is how long a drop folder must stay quiet before a burst is
// delivered
const DefaultSettle = 300 * time.Millisecond

// DropTarget receives drag events from a DropWatcher. Calls arrive on the
// watcher goroutine, so implementations must hand them to their own loop.
type DropTarget interface {
	DragEnter()
	DragLeave()
	Drop(paths []string)
}

// DropWatcher turns files landing in a directory into drops
type DropWatcher struct {
	dir    string
	settle time.Duration
	target DropTarget
	log    *logger.Logger
}

// NewDropWatcher validates dir and creates a watcher for it
func NewDropWatcher(dir string, settle time.Duration, target DropTarget) (*DropWatcher, error) {
	if err := validateDropDir(dir); err != nil {
		return nil, fmt.Errorf("invalid drop directory: %w", err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &DropWatcher{
		dir:    filepath.Clean(dir),
		settle: settle,
		target: target,
		log:    logger.New("capture"),
	}, nil
}

// Dir returns the watched directory
func (w *DropWatcher) Dir() string {
	return w.dir
}

// Run watches until ctx is cancelled
func (w *DropWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.cleanup(watcher)

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info("watching drop folder", logger.F("dir", w.dir))

	var (
		burst  []string
		settle = time.NewTimer(time.Hour)
	)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			burst = w.handleEvent(event, burst)
			if len(burst) > 0 {
				settle.Reset(w.settle)
			}

		case <-settle.C:
			if len(burst) == 0 {
				continue
			}
			w.log.Debug("delivering drop", logger.Count(len(burst)))
			w.target.Drop(burst)
			burst = nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watcher error", logger.Error(err))
		}
	}
}

// handleEvent folds one filesystem event into the pending burst
func (w *DropWatcher) handleEvent(event fsnotify.Event, burst []string) []string {
	if ignoredName(event.Name) {
		return burst
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if contains(burst, event.Name) || !isRegular(event.Name) {
			return burst
		}
		if len(burst) == 0 {
			w.target.DragEnter()
		}
		return append(burst, event.Name)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !contains(burst, event.Name) {
			return burst
		}
		burst = without(burst, event.Name)
		if len(burst) == 0 {
			w.target.DragLeave()
		}
	}
	return burst
}

func (w *DropWatcher) cleanup(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil {
		w.log.Warn("failed to close watcher", logger.Error(err))
	}
}

// ignoredName filters editor and download temporaries
func ignoredName(path string) bool {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "."):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".tmp" || ext == ".part" || ext == ".crdownload" || ext == ".swp"
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func contains(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}

func without(paths []string, path string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// validateDropDir checks that path is an existing directory
func validateDropDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty directory path")
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
