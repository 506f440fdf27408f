package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the reloader waits after the last write.
const DefaultDebounce = 500 * time.Millisecond

// Reloadable is reloaded when a watched file changes.
type Reloadable interface {
	ReloadProfile() error
}

// Reloader watches mapping files for changes and triggers hot-reload.
type Reloader struct {
	watcher  *fsnotify.Watcher
	target   Reloadable
	paths    []string
	debounce time.Duration
	log      *zap.Logger
}

// NewReloader creates a file watcher for the given paths. Empty or missing
// paths are skipped.
func NewReloader(target Reloadable, paths []string, log *zap.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
		watched = append(watched, p)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Reloader{
		watcher:  watcher,
		target:   target,
		paths:    watched,
		debounce: DefaultDebounce,
		log:      log,
	}, nil
}

// SetDebounce overrides the quiet period before a reload.
func (r *Reloader) SetDebounce(d time.Duration) {
	r.debounce = d
}

// Paths returns the files actually being watched.
func (r *Reloader) Paths() []string {
	return r.paths
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(r.debounce, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) reload() {
	if err := r.target.ReloadProfile(); err != nil {
		r.log.Error("hot-reload failed", zap.Error(err))
		return
	}
	r.log.Info("hot-reload: profile reloaded")
}
