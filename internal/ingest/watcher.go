package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig configures StartWatcher
type WatchConfig struct {
	Dir      string
	Accept   func(path string) bool // nil accepts every file
	Debounce time.Duration          // coalesce write bursts from copying editors
}

// StartWatcher watches cfg.Dir (not recursively) and emits the path of every
// accepted file once it has been quiet for cfg.Debounce. Both channels are
// closed when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Dir == "" {
		return nil, nil, errors.New("no directory provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", slog.String("error", err.Error()))
			}
		}()

		pending := map[string]time.Time{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		flush := func(now time.Time) {
			var next time.Duration
			for path, due := range pending {
				if now.Before(due) {
					if d := due.Sub(now); next == 0 || d < next {
						next = d
					}
					continue
				}
				select {
				case evCh <- path:
					delete(pending, path)
				case <-ctx.Done():
					return
				}
			}
			if next > 0 {
				timer.Reset(next)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if filepath.Dir(e.Name) != filepath.Clean(cfg.Dir) {
					continue
				}
				if cfg.Accept != nil && !cfg.Accept(e.Name) {
					continue
				}
				pending[e.Name] = time.Now().Add(cfg.Debounce)
				if cfg.Debounce <= 0 {
					flush(time.Now())
					continue
				}
				timer.Reset(cfg.Debounce)

			case now := <-timer.C:
				flush(now)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", slog.String("error", err.Error()))
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
