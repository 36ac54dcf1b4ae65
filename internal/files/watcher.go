// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// =============================================================================
// WATCHER CONFIGURATION
// =============================================================================

// WatchConfig configures a Watcher.
type WatchConfig struct {
	// Dir is the directory tree to follow.
	Dir string

	// Filter selects which files are reported.
	Filter Filter

	// Debounce is how long a file must stay quiet before it is reported
	// (default: 500ms).
	Debounce time.Duration

	// MinInterval is the minimum gap between two batches (0 = no limit).
	MinInterval time.Duration

	// RetryDelay is how long the files of a failed batch wait before they
	// are offered again (default: 5s).
	RetryDelay time.Duration

	Logger *zap.Logger
}

// BatchHandler receives each batch of settled files. An error is logged and
// does not stop the watcher; the batch is offered again after RetryDelay.
type BatchHandler func(ctx context.Context, paths []string) error

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// Watcher reports documents created or rewritten under a directory.
// Rapid successive writes to one file collapse into a single report. Once a
// batch is handled, a file is reported again only when its size or
// modification time changes.
type Watcher struct {
	cfg     WatchConfig
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *zap.Logger

	mu       sync.Mutex
	pending  map[string]time.Time // path -> last event time
	inFlight map[string]fileStamp // path -> stamp of the batch being handled
	sent     map[string]fileStamp // path -> stamp at last handled report
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// NewWatcher starts following cfg.Dir and every directory below it.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Filter.exts == nil {
		cfg.Filter = NewFilter()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		limiter: rate.NewLimiter(limit, 1),
		logger:  cfg.Logger.Named("watcher"),
		pending:  make(map[string]time.Time),
		inFlight: make(map[string]fileStamp),
		sent:     make(map[string]fileStamp),
	}

	if err := w.addRecursive(cfg.Dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive adds a directory and all its subdirectories to the watch
// list. Hidden directories are skipped.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("cannot watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

// Run delivers batches to handle until ctx is cancelled, then releases the
// underlying watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, handle BatchHandler) error {
	defer w.fsw.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.collect(ctx) })
	g.Go(func() error { return w.flush(ctx, handle) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// collect processes file system events.
func (w *Watcher) collect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}

			if w.cfg.Filter.Allows(event.Name) {
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// flush hands settled files to handle in sorted batches.
func (w *Watcher) flush(ctx context.Context, handle BatchHandler) error {
	tick := w.cfg.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		batch := w.settled(time.Now())
		if len(batch) == 0 {
			continue
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}

		w.logger.Info("new documents", zap.Strings("files", batch))
		err := handle(ctx, batch)
		if err != nil {
			w.logger.Warn("batch handler failed", zap.Int("files", len(batch)),
				zap.Duration("retry_in", w.cfg.RetryDelay), zap.Error(err))
		}
		w.finish(batch, err == nil, time.Now())
	}
}

// settled removes and returns pending files that have been quiet for the
// debounce interval and changed since they were last handled.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var batch []string
	for path, last := range w.pending {
		if now.Sub(last) < w.cfg.Debounce {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := w.sent[path]; ok && prev.size == stamp.size && prev.modTime.Equal(stamp.modTime) {
			continue
		}
		w.inFlight[path] = stamp
		batch = append(batch, path)
	}

	slices.Sort(batch)
	return batch
}

// finish records the outcome of a batch. Handled files are remembered so an
// unchanged file is not sent twice. Files of a failed batch are queued again
// unless a newer event already queued them.
func (w *Watcher) finish(batch []string, ok bool, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range batch {
		stamp := w.inFlight[path]
		delete(w.inFlight, path)
		if ok {
			w.sent[path] = stamp
			continue
		}
		if _, queued := w.pending[path]; !queued {
			w.pending[path] = now.Add(w.cfg.RetryDelay - w.cfg.Debounce)
		}
	}
}
