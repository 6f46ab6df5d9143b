// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a configuration file and reloads it when its modification
// time advances. Command-line overrides given at construction are reapplied on
// every reload.
type Watcher struct {
	mu        sync.RWMutex
	path      string
	overrides map[string]string
	interval  time.Duration
	lastMod   time.Time
	config    *Config
	listeners []func(*Config)
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
	logger    *slog.Logger
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval for file changes.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger for the watcher.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher parses args like LoadWithCLI, loads the initial configuration,
// and prepares to watch the --config file. Without a --config file the
// watcher never reloads.
func NewWatcher(args []string, opts ...WatcherOption) (*Watcher, error) {
	path, overrides, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:      path,
		overrides: overrides,
		interval:  time.Second,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if path != "" {
		if info, err := os.Stat(path); err == nil {
			w.lastMod = info.ModTime()
		}
	}

	cfg, err := load(w.path, w.overrides)
	if err != nil {
		return nil, err
	}
	w.config = cfg
	return w, nil
}

// OnChange registers a callback invoked with each reloaded configuration.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if w.path == "" {
		close(w.doneCh)
		return
	}
	go w.watch(ctx)
}

// Stop stops the watcher and waits for the polling goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.changed() {
				w.reload()
			}
		}
	}
}

func (w *Watcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if info.ModTime().After(w.lastMod) {
		w.lastMod = info.ModTime()
		return true
	}
	return false
}

func (w *Watcher) reload() {
	cfg, err := load(w.path, w.overrides)
	if err != nil {
		w.logger.Error("failed to reload config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.config = cfg
	listeners := make([]func(*Config), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	for _, fn := range listeners {
		fn(cfg)
	}
}
