package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/richtext/internal/logging"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
	onError  func(error)
}

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload events.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorHandler receives reload failures. Failed reloads never reach
// the change callback.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(c *watchConfig) {
		c.onError = fn
	}
}

// Watch reloads the file at path whenever it changes and passes each
// successfully parsed configuration to onChange. It blocks until ctx is
// done.
//
// The containing directory is watched so that editors replacing the file
// atomically are observed.
func Watch(ctx context.Context, path string, onChange func(*Config), opts ...WatchOption) error {
	cfg := watchConfig{
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&relevant == 0 {
				continue
			}
			cfg.logger.Debug("config event", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(cfg.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn("config watcher error", "error", err)
			cfg.onError(err)

		case <-timer.C:
			c, err := Load(abs)
			if err != nil {
				cfg.logger.Warn("config reload failed", "path", abs, "error", err)
				cfg.onError(err)
				continue
			}
			cfg.logger.Info("config reloaded", "path", abs)
			onChange(c)
		}
	}
}
