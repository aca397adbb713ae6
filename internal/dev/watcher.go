package dev

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/registry"
)

// DefaultDebounce is the delay between the last file event of a burst and
// the reload.
const DefaultDebounce = 200 * time.Millisecond

// Config configures the watcher.
type Config struct {
	// Path is the declaration file to follow.
	Path string

	// Debounce is the delay before reloading after a change.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ErrOutput, if set, receives the formatted error of a failed reload.
	ErrOutput io.Writer

	// OnError, if set, is called with the error of a failed reload.
	OnError func(error)
}

// Stats counts reload attempts.
type Stats struct {
	Events   int
	Reloads  int
	Failures int
}

// Watcher reloads declarations when their file changes.
type Watcher struct {
	config   Config
	onReload func(*registry.Registry)
	target   string
	dir      string
	logger   *slog.Logger

	fs        *fsnotify.Watcher
	closeOnce sync.Once

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
}

// NewWatcher creates a watcher for config.Path. onReload is called on the
// watcher's goroutine with every successfully parsed registry.
func NewWatcher(config Config, onReload func(*registry.Registry)) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	target, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, errors.New("E104").Wrap(err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New("E104").Wrapf("start file watcher: %w", err)
	}

	return &Watcher{
		config:   config,
		onReload: onReload,
		target:   target,
		dir:      filepath.Dir(target),
		logger:   logger.With("component", "watcher", "path", target),
		fs:       fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking; events are handled on a
// goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.fs.Add(w.dir); err != nil {
		w.mu.Unlock()
		return errors.New("E104").Wrapf("watch %s: %w", w.dir, err)
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching declarations", "debounce", w.config.Debounce)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.closeOnce.Do(func() {
		if err := w.fs.Close(); err != nil {
			w.logger.Error("closing file watcher", "error", err)
		}
	})
}

// Stats returns a snapshot of the watcher's counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

// relevant reports whether event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *Watcher) reload() {
	reg, err := registry.LoadFile(w.target)
	if err != nil {
		w.mu.Lock()
		w.stats.Failures++
		w.mu.Unlock()

		w.logger.Error("declarations reload failed, keeping previous declarations",
			"code", errors.Code(err),
			"error", err)
		if w.config.ErrOutput != nil {
			errors.Fprint(w.config.ErrOutput, err)
		}
		if w.config.OnError != nil {
			w.config.OnError(err)
		}
		return
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()

	w.logger.Info("declarations changed", "variables", reg.Len())
	if w.onReload != nil {
		w.onReload(reg)
	}
}
