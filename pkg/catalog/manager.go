package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the active catalog and coordinates loading and
// hot-reload. Reads are lock-cheap snapshots: callers take the current
// *Catalog once per extraction and keep using it even if a reload lands
// mid-stream.
type Manager struct {
	path             string
	debounceInterval time.Duration
	logger           *slog.Logger

	mu            sync.RWMutex
	current       *Catalog
	lastLoadTime  time.Time
	lastLoadError error

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watcher     *FileWatcher
}

// NewManager creates a manager for the catalog at path. An empty path
// selects the built-in default catalog and disables watching.
func NewManager(path string, debounceInterval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		path:             path,
		debounceInterval: debounceInterval,
		logger:           logger.With("component", "catalog"),
		current:          Default(),
	}
}

// Load loads the configured catalog file and installs it as the active
// catalog. Without a configured path the built-in default stays active.
func (m *Manager) Load() error {
	if m.path == "" {
		m.logger.Info("Using built-in catalog",
			"sections", m.Current().SectionCount(),
		)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	c, err := Load(m.path)
	if err != nil {
		m.lastLoadError = err
		m.logger.Error("Failed to load catalog",
			"path", m.path,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	m.current = c
	m.lastLoadTime = time.Now()
	m.lastLoadError = nil

	m.logger.Info("Catalog loaded",
		"path", m.path,
		"sections", c.SectionCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Reload re-reads the catalog file. A failed reload keeps the previous
// catalog active and records the error.
func (m *Manager) Reload() error {
	if m.path == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	c, err := Load(m.path)
	if err != nil {
		m.lastLoadError = err
		m.logger.Error("Failed to reload catalog, keeping previous catalog",
			"path", m.path,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	m.current = c
	m.lastLoadTime = time.Now()
	m.lastLoadError = nil

	m.logger.Info("Catalog reloaded",
		"path", m.path,
		"sections", c.SectionCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Current returns the active catalog. The returned value is immutable;
// callers must not modify it.
func (m *Manager) Current() *Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastLoadTime returns when a catalog file was last installed.
func (m *Manager) LastLoadTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadTime
}

// LastLoadError returns the error from the most recent load attempt.
func (m *Manager) LastLoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadError
}

// Watch blocks watching the catalog file for changes until the context
// is cancelled, reloading on each change. It returns immediately with
// an error when no path is configured or a watch is already running.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		return fmt.Errorf("catalog watching requires a configured catalog path")
	}

	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return fmt.Errorf("watch already started")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel

	watcher, err := NewFileWatcher(m.path, m.debounceInterval, m.logger)
	if err != nil {
		m.watchCancel = nil
		m.watchMu.Unlock()
		cancel()
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	m.watcher = watcher
	m.watchMu.Unlock()

	go func() {
		if err := watcher.Watch(watchCtx, m.Reload); err != nil {
			m.logger.Error("Catalog watcher error", "error", err)
		}
	}()

	<-watchCtx.Done()

	return watcher.Stop()
}

// Close stops any running watch and releases resources.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}

	m.logger.Info("Catalog manager closed")
	return nil
}
