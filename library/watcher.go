package library

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"SpectraFM/logger"

	"github.com/fsnotify/fsnotify"
)

// SettleDelay is how long a new file must stay unchanged before it is imported.
const SettleDelay = 2 * time.Second

// ImportFunc imports one file.
type ImportFunc func(ctx context.Context, path string) error

// Watcher imports audio files dropped into a directory.
type Watcher struct {
	dir    string
	do     ImportFunc
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    map[string]bool
	wg      sync.WaitGroup
}

func NewWatcher(dir string, do ImportFunc) *Watcher {
	return &Watcher{
		dir:     dir,
		do:      do,
		settle:  SettleDelay,
		pending: make(map[string]*time.Timer),
		done:    make(map[string]bool),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create import dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logger.Info("Watching import directory", logger.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.wg.Wait()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsAudioFile(event.Name) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Import watcher error", logger.ErrorField(err))
		}
	}
}

// schedule (re)starts the settle timer of path; writes keep pushing the import back.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.done[path] = true
		w.mu.Unlock()

		if err := w.do(ctx, path); err != nil {
			logger.Error("Auto import failed", logger.String("path", path), logger.ErrorField(err))
			return
		}
		logger.Info("Auto imported file", logger.String("path", path))
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}
