// Package watch processes chat exports as they land in the input directory.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one settled export file.
type Handler func(ctx context.Context, path string) error

// Stats tracks watcher activity.
type Stats struct {
	Processed     int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches a directory for *.json exports and hands each one to a
// Handler once writes to it have settled.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	handle      Handler
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a Watcher for dir. The directory must exist.
func New(dir string, handle Handler, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		handle:      handle,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period; call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDur = d
}

// Start begins watching in a goroutine. It is a no-op when already running.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching for chat exports", zap.String("dir", w.dir))
	go w.run(ctx)
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
}

// Done is closed when the loop exits, either from Stop or context cancellation.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("export changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	now := time.Now()
	w.debounceMap[event.Name] = now
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = now
	w.mu.Unlock()
}

func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, t := range w.debounceMap {
		if now.Sub(t) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()
	sort.Strings(ready)

	for _, path := range ready {
		if _, err := os.Stat(path); err != nil {
			continue // removed before it settled
		}
		err := w.handle(ctx, path)
		w.mu.Lock()
		if err != nil {
			w.stats.Errors++
		} else {
			w.stats.Processed++
		}
		w.mu.Unlock()
		if err != nil {
			w.logger.Error("failed to process export", zap.String("path", path), zap.Error(err))
			continue
		}
		w.logger.Info("processed export", zap.String("path", path))
	}
}
