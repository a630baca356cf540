// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

const bookingColumns = `id, screenid, campaign_id, booked_num_slots,
	start_date, end_date, status, payment_status, source, created_at, updated_at`

// UpsertBooking inserts or refreshes a slot booking, typically from sync.
func (db *DB) UpsertBooking(ctx context.Context, b *models.SlotBooking) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "slot_bookings", time.Since(start), err) }()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `INSERT INTO slot_bookings (
		id, screenid, campaign_id, booked_num_slots, start_date, end_date,
		status, payment_status, source, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT (id) DO UPDATE SET
		booked_num_slots = excluded.booked_num_slots,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		status = excluded.status,
		payment_status = excluded.payment_status,
		updated_at = now()`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		b.ID, b.ScreenID, b.CampaignID, b.BookedNumSlots,
		b.StartDate, b.EndDate, b.Status, b.PaymentStatus, b.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert booking %s: %w", b.ID, err)
	}
	return nil
}

// BookingsForScreens loads all slot-consuming bookings that overlap the
// inclusive date range, keyed by screen id.
func (db *DB) BookingsForScreens(ctx context.Context, screenIDs []string, start, end time.Time) (result map[string][]models.SlotBooking, err error) {
	result = make(map[string][]models.SlotBooking)
	if len(screenIDs) == 0 {
		return result, nil
	}

	began := time.Now()
	defer func() { metrics.RecordDBQuery("select", "slot_bookings", time.Since(began), err) }()

	marks := make([]string, len(screenIDs))
	args := make([]interface{}, 0, len(screenIDs)+4)
	for i, id := range screenIDs {
		marks[i] = "?"
		args = append(args, id)
	}
	args = append(args, models.BookingStatusPaid, models.BookingStatusHold, end, start)

	query := "SELECT " + bookingColumns + ` FROM slot_bookings
		WHERE screenid IN (` + strings.Join(marks, ", ") + `)
		AND status IN (?, ?)
		AND start_date <= ? AND end_date >= ?`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings for screens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.SlotBooking
		if err := rows.Scan(
			&b.ID, &b.ScreenID, &b.CampaignID, &b.BookedNumSlots,
			&b.StartDate, &b.EndDate, &b.Status, &b.PaymentStatus, &b.Source,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result[b.ScreenID] = append(result[b.ScreenID], b)
	}
	return result, rows.Err()
}

// CreateHold places an assistant-originated hold on a screen's slots.
func (db *DB) CreateHold(ctx context.Context, screenID, campaignID string, numSlots int, start, end time.Time) (*models.SlotBooking, error) {
	b := &models.SlotBooking{
		ID:             uuid.NewString(),
		ScreenID:       screenID,
		CampaignID:     campaignID,
		BookedNumSlots: numSlots,
		StartDate:      start,
		EndDate:        end,
		Status:         models.BookingStatusHold,
		PaymentStatus:  models.PaymentStatusUnpaid,
		Source:         models.BookingSourceXIGI,
	}
	if err := db.UpsertBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ExpireStaleHolds expires unpaid assistant holds older than maxAge. Holds
// from other sources are the console's to manage and are never touched.
func (db *DB) ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (expired int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "slot_bookings", time.Since(start), err) }()

	query := `UPDATE slot_bookings SET
		status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE status = ?
		AND payment_status = ?
		AND source = ?
		AND created_at < ?`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	result, err := stmt.ExecContext(ctx,
		models.BookingStatusExpired, models.BookingStatusHold,
		models.PaymentStatusUnpaid, models.BookingSourceXIGI, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("expire stale holds: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Info().Int64("expired", n).Msg("Expired stale assistant holds")
	}
	return int(n), nil
}
