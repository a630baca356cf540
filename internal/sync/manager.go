// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// DBInterface defines the database operations the sync manager needs.
type DBInterface interface {
	GetScreen(ctx context.Context, screenID string) (*models.Screen, error)
	UpsertScreen(ctx context.Context, s *models.Screen) error
	UpdateProfile(ctx context.Context, screenID string, p *models.AreaProfile, profileJSON string) error
	UpsertBooking(ctx context.Context, b *models.SlotBooking) error
	ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error)
}

// Manager orchestrates periodic pulls from the console API and the
// hold-expiry sweep. The API layer reaches it through TriggerSync,
// LastSyncTime, and SetOnSyncCompleted.
type Manager struct {
	db              DBInterface
	client          ConsoleAPI
	cfg             *config.Config
	lastSync        time.Time
	running         bool
	mu              sync.RWMutex
	syncMu          sync.Mutex // Protects concurrent sync execution
	stopChan        chan struct{}
	wg              sync.WaitGroup
	onSyncCompleted func(newRecords int, durationMs int64) // Callback invoked after successful sync with stats
}

// NewManager creates a sync manager. The client may be nil when console
// sync is disabled; the hold-expiry sweep runs either way.
func NewManager(db DBInterface, client ConsoleAPI, cfg *config.Config) *Manager {
	m := &Manager{
		db:       db,
		client:   client,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}

	logging.Info().
		Bool("enabled", cfg.Sync.Enabled).
		Dur("interval", cfg.Sync.Interval).
		Dur("hold_expiry", cfg.Chat.HoldExpiry).
		Dur("sweep_interval", cfg.Chat.SweepInterval).
		Msg("Sync manager config loaded")

	return m
}

// SetOnSyncCompleted sets the callback to be invoked after each successful sync
func (m *Manager) SetOnSyncCompleted(callback func(newRecords int, durationMs int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// Start begins periodic synchronization and the hold-expiry sweep
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}

	logging.Info().Msg("Starting sync manager...")

	m.running = true
	m.mu.Unlock()

	if m.cfg.Sync.Enabled && m.client != nil {
		// Add all goroutines to the WaitGroup before starting them.
		// This prevents Stop() from calling Wait() before all Add() calls complete.
		m.wg.Add(2) // One for initial sync, one for sync loop

		// Perform initial sync in background to avoid blocking server startup
		go func() {
			defer m.wg.Done()
			if err := m.performInitialSync(); err != nil {
				logging.Warn().Err(err).Msg("Initial sync failed (will retry)")
			}
		}()

		go m.syncLoop(ctx)
		logging.Info().Msg("Console sync enabled and started")
	} else {
		logging.Info().Msg("Console sync disabled - serving local inventory only")
	}

	m.wg.Add(1)
	go m.sweepLoop(ctx)

	return nil
}

// Stop gracefully stops the sync and sweep loops
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")

	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")

	return nil
}

// LastSyncTime returns the timestamp of the last successful sync
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// TriggerSync manually triggers a synchronization
func (m *Manager) TriggerSync() error {
	if m.client == nil {
		return fmt.Errorf("console sync is not configured")
	}

	// Prevent concurrent sync execution
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	return m.syncData(context.Background())
}

// performInitialSync performs the first synchronization on startup.
// Acquires syncMu so it cannot overlap a manual trigger or the loop.
func (m *Manager) performInitialSync() error {
	logging.Info().Msg("Performing initial sync...")

	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	return m.syncData(context.Background())
}

// syncLoop runs the periodic synchronization
func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			// Prevent concurrent sync execution
			m.syncMu.Lock()
			err := m.syncData(ctx)
			m.syncMu.Unlock()

			if err != nil {
				logging.Error().Err(err).Msg("Sync failed")
			}
		}
	}
}
