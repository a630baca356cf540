// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// screenColumns is the column order used by every screen SELECT and scan.
const screenColumns = `screenid, name, screen_type, orientation, environment,
	spec_city, spec_state, spec_pincode, spec_full_address, spec_latitude,
	spec_longitude, spec_nearest_landmark, status, profile_status, screen_owner,
	price_per_slot, total_slots, reserved_slots, slot_duration_sec,
	loop_duration_sec, resolution_width, resolution_height, screen_size_width,
	screen_size_height, total_screen_area, brightness_nits, mounting_height_ft,
	audio_supported, daily_impressions, daily_footfall, restricted_categories,
	blocked_from, blocked_until, primary_type, area_context, confidence,
	classification_detail, movement_type, dwell_time, city_tier,
	dominance_ratio, ring2_place_groups, profile_json, profile_computed_at,
	llm_used, llm_mode, llm_reason, created_at, updated_at`

// filterableColumns is the allowlist for dynamic WHERE clauses. Anything not
// listed here is silently dropped rather than interpolated into SQL.
var filterableColumns = map[string]bool{
	"screen_type": true, "orientation": true, "environment": true,
	"spec_city": true, "spec_state": true, "spec_pincode": true,
	"status": true, "profile_status": true, "screen_owner": true,
	"primary_type": true, "area_context": true, "confidence": true,
	"movement_type": true, "dwell_time": true, "city_tier": true,
	"audio_supported": true,
	"price_per_slot": true, "total_slots": true, "slot_duration_sec": true,
	"resolution_width": true, "resolution_height": true, "total_screen_area": true,
	"brightness_nits": true, "mounting_height_ft": true,
	"daily_impressions": true, "daily_footfall": true, "dominance_ratio": true,
}

// textSearchColumns participate in free-text ILIKE matching.
var textSearchColumns = []string{
	"name", "spec_full_address", "spec_city", "spec_state",
	"spec_nearest_landmark", "area_context", "primary_type",
	"ring2_place_groups",
}

// NumericCondition is a comparison filter on a numeric column.
type NumericCondition struct {
	Op    string // one of =, !=, >, >=, <, <=
	Value float64
}

var validNumericOps = map[string]bool{
	"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
}

// ScreenQuery is a composable inventory query.
type ScreenQuery struct {
	// Filters map column names to values: string (case-insensitive match),
	// []string (IN), bool, or NumericCondition.
	Filters map[string]interface{}

	// Excludes negate the same value forms.
	Excludes map[string]interface{}

	// TextTokens each must ILIKE-match at least one text column.
	TextTokens []string

	// EligibleOnly restricts to discoverable screens: verified (or block
	// scheduled) and profiled.
	EligibleOnly bool

	Limit int
}

// UpsertScreen inserts or refreshes a screen record, preserving computed
// profile fields on conflict so a sync never wipes a profile.
func (db *DB) UpsertScreen(ctx context.Context, s *models.Screen) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "screens", time.Since(start), err) }()

	query := `INSERT INTO screens (
		screenid, name, screen_type, orientation, environment, spec_city,
		spec_state, spec_pincode, spec_full_address, spec_latitude,
		spec_longitude, spec_nearest_landmark, status, profile_status,
		screen_owner, price_per_slot, total_slots, reserved_slots,
		slot_duration_sec, loop_duration_sec, resolution_width,
		resolution_height, screen_size_width, screen_size_height,
		total_screen_area, brightness_nits, mounting_height_ft,
		audio_supported, daily_impressions, daily_footfall,
		restricted_categories, blocked_from, blocked_until,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT (screenid) DO UPDATE SET
		name = excluded.name,
		screen_type = excluded.screen_type,
		orientation = excluded.orientation,
		environment = excluded.environment,
		spec_city = excluded.spec_city,
		spec_state = excluded.spec_state,
		spec_pincode = excluded.spec_pincode,
		spec_full_address = excluded.spec_full_address,
		spec_latitude = excluded.spec_latitude,
		spec_longitude = excluded.spec_longitude,
		spec_nearest_landmark = excluded.spec_nearest_landmark,
		status = excluded.status,
		profile_status = excluded.profile_status,
		screen_owner = excluded.screen_owner,
		price_per_slot = excluded.price_per_slot,
		total_slots = excluded.total_slots,
		reserved_slots = excluded.reserved_slots,
		slot_duration_sec = excluded.slot_duration_sec,
		loop_duration_sec = excluded.loop_duration_sec,
		resolution_width = excluded.resolution_width,
		resolution_height = excluded.resolution_height,
		screen_size_width = excluded.screen_size_width,
		screen_size_height = excluded.screen_size_height,
		total_screen_area = excluded.total_screen_area,
		brightness_nits = excluded.brightness_nits,
		mounting_height_ft = excluded.mounting_height_ft,
		audio_supported = excluded.audio_supported,
		daily_impressions = excluded.daily_impressions,
		daily_footfall = excluded.daily_footfall,
		restricted_categories = excluded.restricted_categories,
		blocked_from = excluded.blocked_from,
		blocked_until = excluded.blocked_until,
		updated_at = now()`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		s.ScreenID, s.Name, s.ScreenType, s.Orientation, s.Environment,
		s.SpecCity, s.SpecState, s.SpecPincode, s.SpecFullAddress,
		s.SpecLatitude, s.SpecLongitude, s.SpecNearestLandmark,
		s.Status, s.ProfileStatus, s.ScreenOwner,
		s.PricePerSlot, s.TotalSlots, s.ReservedSlots,
		s.SlotDurationSec, s.LoopDurationSec,
		s.ResolutionWidth, s.ResolutionHeight,
		s.ScreenSizeWidth, s.ScreenSizeHeight, s.TotalScreenArea,
		s.BrightnessNits, s.MountingHeightFt, s.AudioSupported,
		s.DailyImpressions, s.DailyFootfall, s.RestrictedCategories,
		s.BlockedFrom, s.BlockedUntil,
	)
	if err != nil {
		return fmt.Errorf("upsert screen %s: %w", s.ScreenID, err)
	}
	return nil
}

// GetScreen fetches a single screen by id. Returns sql.ErrNoRows when the
// screen does not exist.
func (db *DB) GetScreen(ctx context.Context, screenID string) (s *models.Screen, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "screens", time.Since(start), err) }()

	query := "SELECT " + screenColumns + " FROM screens WHERE screenid = ?"
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanScreen(stmt.QueryRowContext(ctx, screenID))
}

// UpdateProfile writes a computed area profile onto a screen and flips its
// profile status to PROFILED.
func (db *DB) UpdateProfile(ctx context.Context, screenID string, p *models.AreaProfile, profileJSON string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "screens", time.Since(start), err) }()

	query := `UPDATE screens SET
		primary_type = ?,
		area_context = ?,
		confidence = ?,
		classification_detail = ?,
		movement_type = ?,
		dwell_time = ?,
		city_tier = ?,
		dominance_ratio = ?,
		ring2_place_groups = ?,
		profile_json = ?,
		profile_computed_at = ?,
		llm_used = ?,
		llm_mode = ?,
		llm_reason = ?,
		profile_status = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE screenid = ?`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return err
	}

	groups := make([]string, 0, len(p.PlaceGroups))
	for g, n := range p.PlaceGroups {
		groups = append(groups, fmt.Sprintf("%s:%d", g, n))
	}

	var llmUsed bool
	var llmMode, llmReason string
	if p.Metadata.LLM != nil {
		llmUsed = p.Metadata.LLM.Used
		llmMode = p.Metadata.LLM.Mode
		llmReason = p.Metadata.LLM.Reason
	}

	result, err := stmt.ExecContext(ctx,
		p.Area.Type, p.Area.Context, p.Area.Confidence,
		p.Area.ClassificationDetail, p.Movement.Type, p.DwellCategory,
		p.GeoContext.CityTier, p.DominanceRatio,
		strings.Join(groups, ","), profileJSON, p.Metadata.ComputedAt,
		llmUsed, llmMode, llmReason,
		models.ProfileStatusProfiled, screenID,
	)
	if err != nil {
		return fmt.Errorf("update profile for %s: %w", screenID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// QueryScreens runs a composed inventory query.
func (db *DB) QueryScreens(ctx context.Context, q ScreenQuery) (screens []models.Screen, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "screens", time.Since(start), err) }()

	var (
		where []string
		args  []interface{}
	)

	if q.EligibleOnly {
		where = append(where,
			"status IN (?, ?)",
			"profile_status IN (?, ?)",
		)
		args = append(args,
			models.ScreenStatusVerified, models.ScreenStatusScheduledBlock,
			models.ProfileStatusProfiled, models.ProfileStatusReprofile,
		)
	}

	for col, val := range q.Filters {
		clause, clauseArgs, ok := buildCondition(col, val, false)
		if !ok {
			continue
		}
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	for col, val := range q.Excludes {
		clause, clauseArgs, ok := buildCondition(col, val, true)
		if !ok {
			continue
		}
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	for _, token := range q.TextTokens {
		likes := make([]string, len(textSearchColumns))
		for i, col := range textSearchColumns {
			likes[i] = col + " ILIKE ?"
			args = append(args, "%"+token+"%")
		}
		where = append(where, "("+strings.Join(likes, " OR ")+")")
	}

	query := "SELECT " + screenColumns + " FROM screens"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY daily_impressions DESC, screenid"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query screens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanScreenRows(rows)
		if err != nil {
			return nil, err
		}
		screens = append(screens, *s)
	}
	return screens, rows.Err()
}

// buildCondition turns one filter entry into a WHERE clause. Unknown columns
// and malformed values are dropped.
func buildCondition(col string, val interface{}, negate bool) (string, []interface{}, bool) {
	if !filterableColumns[col] {
		return "", nil, false
	}

	switch v := val.(type) {
	case string:
		op := "="
		if negate {
			op = "!="
		}
		return fmt.Sprintf("LOWER(%s) %s LOWER(?)", col, op), []interface{}{v}, true

	case bool:
		op := "="
		if negate {
			op = "!="
		}
		return fmt.Sprintf("%s %s ?", col, op), []interface{}{v}, true

	case []string:
		if len(v) == 0 {
			return "", nil, false
		}
		marks := make([]string, len(v))
		args := make([]interface{}, len(v))
		for i, s := range v {
			marks[i] = "LOWER(?)"
			args[i] = s
		}
		op := "IN"
		if negate {
			op = "NOT IN"
		}
		return fmt.Sprintf("LOWER(%s) %s (%s)", col, op, strings.Join(marks, ", ")), args, true

	case NumericCondition:
		if !validNumericOps[v.Op] {
			return "", nil, false
		}
		clause := fmt.Sprintf("%s %s ?", col, v.Op)
		if negate {
			clause = "NOT (" + clause + ")"
		}
		return clause, []interface{}{v.Value}, true

	case float64:
		op := "="
		if negate {
			op = "!="
		}
		return fmt.Sprintf("%s %s ?", col, op), []interface{}{v}, true

	default:
		return "", nil, false
	}
}

// DistinctValues returns the distinct non-empty values of a filterable
// column, used to build the filter menu from live inventory.
func (db *DB) DistinctValues(ctx context.Context, column string) (values []string, err error) {
	if !filterableColumns[column] {
		return nil, fmt.Errorf("column %q is not filterable", column)
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "screens", time.Since(start), err) }()

	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM screens WHERE CAST(%s AS VARCHAR) != '' ORDER BY 1",
		column, column)
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ScreensNeedingProfile returns screens whose profile is missing or stale.
func (db *DB) ScreensNeedingProfile(ctx context.Context, limit int) (screens []models.Screen, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "screens", time.Since(start), err) }()

	query := "SELECT " + screenColumns + ` FROM screens
		WHERE profile_status IN (?, ?) AND spec_latitude != 0 AND spec_longitude != 0
		ORDER BY updated_at LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query,
		models.ProfileStatusUnprofiled, models.ProfileStatusReprofile, limit)
	if err != nil {
		return nil, fmt.Errorf("screens needing profile: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanScreenRows(rows)
		if err != nil {
			return nil, err
		}
		screens = append(screens, *s)
	}
	return screens, rows.Err()
}

// CountScreens returns the total inventory size.
func (db *DB) CountScreens(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "screens", time.Since(start), err) }()

	err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM screens").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScreen(row *sql.Row) (*models.Screen, error) {
	return scanScreenRows(row)
}

func scanScreenRows(row rowScanner) (*models.Screen, error) {
	var s models.Screen
	err := row.Scan(
		&s.ScreenID, &s.Name, &s.ScreenType, &s.Orientation, &s.Environment,
		&s.SpecCity, &s.SpecState, &s.SpecPincode, &s.SpecFullAddress,
		&s.SpecLatitude, &s.SpecLongitude, &s.SpecNearestLandmark,
		&s.Status, &s.ProfileStatus, &s.ScreenOwner,
		&s.PricePerSlot, &s.TotalSlots, &s.ReservedSlots,
		&s.SlotDurationSec, &s.LoopDurationSec,
		&s.ResolutionWidth, &s.ResolutionHeight,
		&s.ScreenSizeWidth, &s.ScreenSizeHeight, &s.TotalScreenArea,
		&s.BrightnessNits, &s.MountingHeightFt, &s.AudioSupported,
		&s.DailyImpressions, &s.DailyFootfall, &s.RestrictedCategories,
		&s.BlockedFrom, &s.BlockedUntil,
		&s.PrimaryType, &s.AreaContext, &s.Confidence, &s.ClassificationDetail,
		&s.MovementType, &s.DwellTime, &s.CityTier,
		&s.DominanceRatio, &s.Ring2PlaceGroups, &s.ProfileJSON,
		&s.ProfileComputedAt, &s.LLMUsed, &s.LLMMode, &s.LLMReason,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
