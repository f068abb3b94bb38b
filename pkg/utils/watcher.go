// =============================================================================
// catatkeu - Inbox Watcher
// =============================================================================
//
// The watcher reports export files dropped into the inbox while the `watch`
// command runs.
//
// DEBOUNCING:
//   Spreadsheet applications and file copies write a file in several steps,
//   so one drop produces a burst of create and write events. A file is only
//   handed over once it has produced no event for the settle delay.
//
// =============================================================================

package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is the quiet period after which a file counts as written.
const DefaultSettle = 300 * time.Millisecond

// InboxWatcher watches one directory for new export files.
type InboxWatcher struct {
	// Dir is the watched directory. Subdirectories are not watched.
	Dir string

	// Extensions limits the reported files. Default: ImportExtensions.
	Extensions []string

	// Settle is the quiet period before a file is reported.
	// Default: DefaultSettle.
	Settle time.Duration

	// Logger receives watch errors. Default: the charmbracelet default logger.
	Logger *log.Logger
}

// Run watches Dir until ctx is done and calls handle once for every file that
// settled. handle runs on the watching goroutine, so files are handed over one
// at a time and events arriving meanwhile are queued by the watcher.
//
// RETURNS:
//   - nil when ctx is done or the watcher is closed.
//   - An error if the directory cannot be watched.
func (w *InboxWatcher) Run(ctx context.Context, handle func(path string)) error {
	extensions := w.Extensions
	if len(extensions) == 0 {
		extensions = ImportExtensions
	}
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	logger := w.Logger
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	logger.Info("watching inbox", "dir", w.Dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsImportable(filepath.Base(ev.Name), extensions) {
				continue
			}
			pending[ev.Name] = time.Now()

		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= settle {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				if FileExists(path) {
					handle(path)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
