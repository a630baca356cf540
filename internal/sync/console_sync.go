// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
)

// Result tallies one sync cycle. Screens distinguish created from
// updated; bookings upsert blind, so only a combined count is known.
type Result struct {
	ScreensCreated int
	ScreensUpdated int
	BookingsSynced int
	Errors         int
}

// Total returns the number of records that landed in the database.
func (r Result) Total() int {
	return r.ScreensCreated + r.ScreensUpdated + r.BookingsSynced
}

// syncData pulls screens, per-screen profiles, and bookings from the
// console. A screens fetch failure aborts the cycle; a bookings fetch
// failure does not, so inventory still lands.
// Note: syncMu must be held by the caller (TriggerSync or syncLoop).
func (m *Manager) syncData(ctx context.Context) error {
	syncStartTime := time.Now()

	var res Result
	if err := m.syncScreens(ctx, &res); err != nil {
		metrics.RecordSyncOperation(time.Since(syncStartTime), 0, err)
		return err
	}
	m.syncBookings(ctx, &res)

	m.finalizeSyncOperation(syncStartTime, res)
	return nil
}

// syncScreens fetches the inventory and upserts every screen, then
// attaches the console's computed area profile when one exists.
func (m *Manager) syncScreens(ctx context.Context, res *Result) error {
	screens, err := m.client.FetchScreens(ctx)
	if err != nil {
		return fmt.Errorf("console screens fetch failed: %w", err)
	}

	logging.Info().Int("screens", len(screens)).Msg("Fetched screens from console")

	for i := range screens {
		cs := &screens[i]

		screen, err := cs.ToScreen()
		if err != nil {
			logging.Warn().Err(err).Int64("id", cs.ID).Msg("Skipping screen")
			res.Errors++
			continue
		}

		existing, err := m.db.GetScreen(ctx, screen.ScreenID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			logging.Error().Err(err).Str("screenid", screen.ScreenID).Msg("Screen lookup failed")
			res.Errors++
			continue
		}

		if err := m.db.UpsertScreen(ctx, screen); err != nil {
			logging.Error().Err(err).Str("screenid", screen.ScreenID).Msg("Screen upsert failed")
			res.Errors++
			continue
		}
		if existing == nil {
			res.ScreensCreated++
		} else {
			res.ScreensUpdated++
		}

		m.syncScreenProfile(ctx, screen.ScreenID, res)
	}

	logging.Info().
		Int("created", res.ScreensCreated).
		Int("updated", res.ScreensUpdated).
		Int("errors", res.Errors).
		Msg("Screen sync complete")
	return nil
}

// syncScreenProfile fetches and stores the console's area profile for a
// screen that just synced. A fetch failure downgrades to a warning: the
// screen stays synced and keeps whatever profile columns it already had.
func (m *Manager) syncScreenProfile(ctx context.Context, screenID string, res *Result) {
	profile, raw, err := m.client.FetchProfile(ctx, screenID)
	if err != nil {
		logging.Warn().Err(err).Str("screenid", screenID).Msg("Profile fetch failed")
		return
	}
	if profile == nil {
		logging.Debug().Str("screenid", screenID).Msg("Screen has no console profile yet")
		return
	}

	if err := m.db.UpdateProfile(ctx, screenID, profile, raw); err != nil {
		logging.Error().Err(err).Str("screenid", screenID).Msg("Profile store failed")
		res.Errors++
		return
	}
	logging.Debug().
		Str("screenid", screenID).
		Str("mode", profile.Metadata.PipelineMode).
		Msg("Synced console profile")
}

// syncBookings fetches all slot bookings and upserts them.
func (m *Manager) syncBookings(ctx context.Context, res *Result) {
	bookings, err := m.client.FetchBookings(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Console bookings fetch failed")
		return
	}

	logging.Info().Int("bookings", len(bookings)).Msg("Fetched bookings from console")

	for i := range bookings {
		cb := &bookings[i]

		booking, err := cb.ToBooking()
		if err != nil {
			logging.Warn().Err(err).Int64("id", cb.ID).Msg("Skipping booking")
			res.Errors++
			continue
		}

		if err := m.db.UpsertBooking(ctx, booking); err != nil {
			logging.Error().Err(err).Str("booking", booking.ID).Msg("Booking upsert failed")
			res.Errors++
			continue
		}
		res.BookingsSynced++
	}

	logging.Info().Int("synced", res.BookingsSynced).Msg("Booking sync complete")
}

// finalizeSyncOperation records sync state, metrics, and invokes the
// completion callback.
func (m *Manager) finalizeSyncOperation(syncStartTime time.Time, res Result) {
	m.mu.Lock()
	m.lastSync = syncStartTime
	callback := m.onSyncCompleted
	m.mu.Unlock()

	syncDuration := time.Since(syncStartTime)
	metrics.RecordSyncOperation(syncDuration, res.Total(), nil)

	if callback != nil {
		callback(res.Total(), syncDuration.Milliseconds())
	}

	logging.Info().
		Int("screens_created", res.ScreensCreated).
		Int("screens_updated", res.ScreensUpdated).
		Int("bookings", res.BookingsSynced).
		Int("errors", res.Errors).
		Dur("duration", syncDuration).
		Msg("Sync completed")
}
