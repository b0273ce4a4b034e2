// ABOUTME: Watches the documents directory and emits debounced change notifications
// ABOUTME: Only PDF create, write, remove, and rename events are reported
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of file events (a copy emits several writes)
const DefaultDebounce = 2 * time.Second

// FileOperation is the kind of change observed
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	}
	return "unknown"
}

// FileEvent is a change to one PDF
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// Watcher monitors a directory for PDF changes
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher creates a Watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger.WithPrefix("watch"),
	}, nil
}

// Events starts watching dir and returns raw PDF events until ctx is done
func (w *Watcher) Events(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	events := make(chan FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !IsPDF(event.Name) {
					continue
				}

				var op FileOperation
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = FileModified
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					op = FileDeleted
				default:
					continue
				}

				select {
				case events <- FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "err", err)
			}
		}
	}()

	return events, nil
}

// Changes coalesces events from Events: one signal per quiet period after a burst
func (w *Watcher) Changes(ctx context.Context, dir string) (<-chan struct{}, error) {
	events, err := w.Events(ctx, dir)
	if err != nil {
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		debounceChanges(ctx, events, changes, w.debounce, w.logger)
	}()
	return changes, nil
}

func debounceChanges(ctx context.Context, events <-chan FileEvent, changes chan<- struct{}, wait time.Duration, logger *log.Logger) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Debug("pdf changed", "path", ev.Path, "op", ev.Operation)
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(wait)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case changes <- struct{}{}:
			default:
				// a rebuild is already pending
			}
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
