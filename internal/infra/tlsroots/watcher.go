package tlsroots

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

// Watcher watches a CA bundle and rebuilds the pool when it changes.
type Watcher struct {
	caFile   string
	current  atomic.Pointer[Pool]
	onReload func(*Pool)
	done     chan struct{}
	stopOnce sync.Once
	logger   logger.Logger

	// Debounce settings to avoid multiple reloads
	debounce   time.Duration
	lastReload time.Time
	reloadMu   sync.Mutex
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnReload registers a callback invoked with each successfully
// reloaded pool.
func WithOnReload(fn func(*Pool)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher loads caFile and returns a watcher for it.
func NewWatcher(caFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		caFile:   caFile,
		done:     make(chan struct{}),
		logger:   logger.Default(),
		debounce: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(w)
	}

	pool, err := LoadCAFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	w.current.Store(pool)

	return w, nil
}

// Current returns the most recently loaded pool.
func (w *Watcher) Current() *Pool {
	return w.current.Load()
}

// Start starts watching for changes to the CA bundle.
// This function blocks until Stop() is called.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	// Watch the directory so editor-style renames are seen.
	dir := filepath.Dir(w.caFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("tlsroots: watch dir %s: %w", dir, err)
	}

	w.logger.Debug("ca watcher started", "ca_file", w.caFile)

	base := filepath.Base(w.caFile)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Debug("ca file changed", "file", event.Name, "op", event.Op.String())

			if err := w.debouncedReload(); err != nil {
				w.logger.Warn("ca reload failed", "error", err, "ca_file", w.caFile)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("ca watcher error", "error", err, "ca_file", w.caFile)

		case <-w.done:
			return watcher.Close()
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Warn("ca watcher stopped with error", "error", err)
		}
	}()
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// debouncedReload reloads the bundle with debouncing.
func (w *Watcher) debouncedReload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	now := time.Now()
	if now.Sub(w.lastReload) < w.debounce {
		return nil
	}
	w.lastReload = now

	// Small delay to ensure file write is complete
	time.Sleep(100 * time.Millisecond)

	return w.reload()
}

func (w *Watcher) reload() error {
	pool, err := LoadCAFile(w.caFile)
	if err != nil {
		return err
	}
	w.current.Store(pool)

	w.logger.Info("ca bundle reloaded", "ca_file", w.caFile)

	if w.onReload != nil {
		w.onReload(pool)
	}
	return nil
}
