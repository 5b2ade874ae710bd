package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes and applies its log level.
// Other settings take effect on the next start.
type Watcher struct {
	path   string
	level  *slog.LevelVar
	pinned bool
	log    *slog.Logger
	w      *fsnotify.Watcher
}

// WatchOption customizes a Watcher.
type WatchOption func(*Watcher)

// WithPinnedLevel keeps the level var untouched on reload. Use it when the
// level came from a source that outranks the file, such as a flag.
func WithPinnedLevel(pinned bool) WatchOption {
	return func(cw *Watcher) { cw.pinned = pinned }
}

// NewWatcher starts watching path. The containing directory is watched so
// that editors which replace the file on save are still observed.
func NewWatcher(path string, level *slog.LevelVar, log *slog.Logger, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	if log == nil {
		log = slog.Default()
	}
	cw := &Watcher{path: abs, level: level, log: log, w: w}
	for _, opt := range opts {
		opt(cw)
	}
	return cw, nil
}

// Run processes events until ctx is done. It closes the underlying watcher
// on return.
func (cw *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = cw.w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cw.reload(ctx)
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			cw.log.WarnContext(ctx, "config.watch.error", slog.String("err", err.Error()))
		}
	}
}

func (cw *Watcher) reload(ctx context.Context) {
	cfg, err := Load(cw.path)
	if err != nil {
		// Editors often write in several steps; keep the current level until
		// the file parses again.
		cw.log.WarnContext(ctx, "config.reload.fail", slog.String("err", err.Error()))
		return
	}
	if cw.pinned {
		cw.log.InfoContext(ctx, "config.reload.ok", slog.Bool("log_level_pinned", true))
		return
	}
	lvl, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return
	}
	cw.level.Set(lvl)
	cw.log.InfoContext(ctx, "config.reload.ok", slog.String("log_level", lvl.String()))
}
