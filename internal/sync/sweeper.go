// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package sync

import (
	"context"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
)

// sweepLoop expires stale assistant holds on a fixed cadence. Assistant
// holds reserve slots before payment; unpaid holds older than the
// configured expiry release their slots here. Bookings from other
// sources are the console's to manage and are never touched.
func (m *Manager) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Chat.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.expireHolds(ctx)
		}
	}
}

// expireHolds runs one sweep pass.
func (m *Manager) expireHolds(ctx context.Context) {
	expired, err := m.db.ExpireStaleHolds(ctx, m.cfg.Chat.HoldExpiry)
	if err != nil {
		logging.Error().Err(err).Msg("Hold expiry sweep failed")
		return
	}
	if expired > 0 {
		metrics.RecordHoldsExpired(expired)
	}
}
