// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMenuRenderEmptyInventory(t *testing.T) {
	menu := NewFilterMenu(testDB(t)).Render(context.Background())

	assert.Contains(t, menu, "screen_type: (no data yet)")
	assert.Contains(t, menu, "NUMERIC FILTERS")
	assert.Contains(t, menu, "price_per_slot")
	assert.Contains(t, menu, "GATEWAY FIELDS")
}

func TestFilterMenuRenderWithInventory(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	seedScreen(t, db, "mdu-1", "Madurai", nil)

	menu := NewFilterMenu(db).Render(context.Background())
	assert.Contains(t, menu, "environment: Outdoor")
	assert.Contains(t, menu, "Chennai")
	assert.Contains(t, menu, "Madurai")
}

func TestFilterMenuCacheAndInvalidate(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	m := NewFilterMenu(db)

	before := m.Render(context.Background())
	assert.NotContains(t, before, "Madurai")

	// New inventory is invisible until the cache is dropped.
	seedScreen(t, db, "mdu-1", "Madurai", nil)
	assert.NotContains(t, m.Render(context.Background()), "Madurai")

	m.Invalidate()
	assert.Contains(t, m.Render(context.Background()), "Madurai")
}

func TestFilterColumnPredicates(t *testing.T) {
	assert.True(t, isEnumFilter("environment"))
	assert.False(t, isEnumFilter("price_per_slot"))
	assert.True(t, isNumericFilter("brightness_nits"))
	assert.False(t, isNumericFilter("environment"))
}
