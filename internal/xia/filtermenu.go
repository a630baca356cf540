// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package xia implements the conversational screen discovery assistant: the
// three-call LLM pipeline (understand, rank, respond), the deterministic
// discover engine it feeds, gateway collection, live mode, and creative
// briefs. The orchestrator in this package is the only writer of chat
// session state.
package xia

import (
	"context"
	"strings"
	"time"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/cache"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
)

// Enum filter columns, resolved against live inventory so the menu the
// understanding call sees never drifts from what discover can match.
var enumFilterColumns = []string{
	"screen_type",
	"orientation",
	"environment",
	"spec_city",
	"spec_state",
	"screen_owner",
	"status",
	"primary_type",
	"area_context",
	"confidence",
	"movement_type",
	"dwell_time",
	"city_tier",
	"audio_supported",
}

// Numeric filter columns. The understanding call attaches an operator
// (eq, gt, lt, gte, lte) which filterOperators maps to SQL.
var numericFilterColumns = []string{
	"price_per_slot",
	"total_slots",
	"slot_duration_sec",
	"loop_duration_sec",
	"resolution_width",
	"resolution_height",
	"total_screen_area",
	"brightness_nits",
	"mounting_height_ft",
	"daily_impressions",
	"daily_footfall",
	"dominance_ratio",
}

// Text search columns, matched with partial case-insensitive matching.
var textSearchColumns = []string{
	"name",
	"spec_full_address",
	"spec_city",
	"spec_state",
	"spec_nearest_landmark",
	"area_context",
	"primary_type",
	"ring2_place_groups",
}

// Gateway fields are editable only through the confirmation flow.
var gatewayFields = []string{
	"gateway_start_date",
	"gateway_end_date",
	"gateway_location",
	"gateway_budget_range",
}

// filterOperators maps menu operator names onto SQL comparison operators.
var filterOperators = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"lt":  "<",
	"gte": ">=",
	"lte": "<=",
}

const filterMenuCacheKey = "filter_menu"

// FilterMenu builds the dynamic filter menu injected into the understanding
// prompt. Enum values come from distinct inventory values, cached briefly so
// every chat turn does not hammer the database.
type FilterMenu struct {
	db  *database.DB
	mem *cache.Cache
}

// NewFilterMenu returns a menu builder over the given inventory store.
func NewFilterMenu(db *database.DB) *FilterMenu {
	return &FilterMenu{
		db:  db,
		mem: cache.New("filter_menu", 5*time.Minute),
	}
}

// Render builds the complete filter menu string for the understanding
// prompt.
func (m *FilterMenu) Render(ctx context.Context) string {
	if cached, ok := m.mem.Get(filterMenuCacheKey); ok {
		if menu, ok := cached.(string); ok {
			return menu
		}
	}

	var b strings.Builder
	b.WriteString("ENUM FILTERS (use exact values):\n")
	for _, col := range enumFilterColumns {
		values, err := m.db.DistinctValues(ctx, col)
		if err != nil {
			logging.Warn().Err(err).Str("column", col).Msg("Filter menu column skipped")
			values = nil
		}
		if len(values) == 0 {
			b.WriteString("  " + col + ": (no data yet)\n")
			continue
		}
		b.WriteString("  " + col + ": " + strings.Join(values, ", ") + "\n")
	}

	b.WriteString("\nNUMERIC FILTERS (use operators: eq, gt, lt, gte, lte):\n")
	b.WriteString("  " + strings.Join(numericFilterColumns, ", ") + "\n")

	b.WriteString("\nTEXT SEARCH FIELDS (partial match):\n")
	b.WriteString("  " + strings.Join(textSearchColumns, ", ") + "\n")

	b.WriteString("\nGATEWAY FIELDS (editable, needs approval):\n")
	b.WriteString("  " + strings.Join(gatewayFields, ", "))

	menu := b.String()
	m.mem.Set(filterMenuCacheKey, menu)
	return menu
}

// Invalidate drops the cached menu, called after an inventory sync.
func (m *FilterMenu) Invalidate() {
	m.mem.Delete(filterMenuCacheKey)
}

// isEnumFilter reports whether a column accepts enum filter values.
func isEnumFilter(col string) bool {
	for _, c := range enumFilterColumns {
		if c == col {
			return true
		}
	}
	return false
}

// isNumericFilter reports whether a column accepts numeric conditions.
func isNumericFilter(col string) bool {
	for _, c := range numericFilterColumns {
		if c == col {
			return true
		}
	}
	return false
}
