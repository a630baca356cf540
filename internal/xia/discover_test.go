// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/database"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		RateLimitMessages:   50,
		RateLimitWindow:     15 * time.Minute,
		MaxQuestionAttempts: 2,
		HoldExpiry:          10 * time.Minute,
		ScreenResultLimit:   30,
	}
}

func seedScreen(t *testing.T, db *database.DB, id, city string, mutate func(*models.Screen)) {
	t.Helper()
	s := &models.Screen{
		ScreenID:        id,
		Name:            "Screen " + id,
		ScreenType:      "LED",
		Orientation:     "LANDSCAPE",
		Environment:     "Outdoor",
		SpecCity:        city,
		SpecState:       "Tamil Nadu",
		SpecFullAddress: "12 Anna Salai, " + city,
		SpecLatitude:    13.05,
		SpecLongitude:   80.25,
		Status:          models.ScreenStatusVerified,
		ProfileStatus:   models.ProfileStatusProfiled,
		PricePerSlot:    100,
		TotalSlots:      10,
		ReservedSlots:   2,
		BrightnessNits:  5000,
	}
	if mutate != nil {
		mutate(s)
	}
	require.NoError(t, db.UpsertScreen(context.Background(), s))
}

func discoverParams(cities ...string) models.DiscoverParams {
	return models.DiscoverParams{
		Location:    cities,
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-11",
		BudgetRange: "50000",
	}
}

func TestExtractLocationTokens(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     []string
	}{
		{"city only", "Chennai", []string{"Chennai"}},
		{"strips state", "Chennai, Tamil Nadu", []string{"Chennai"}},
		{"strips pincode", "T Nagar 600017, Chennai", []string{"T Nagar", "Chennai"}},
		{"all noise", "Tamil Nadu, India", nil},
		{"keeps landmark", "Anna Salai, Chennai, Tamil Nadu, 600002", []string{"Anna Salai", "Chennai"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractLocationTokens(tc.location))
		})
	}
}

func TestParseBudget(t *testing.T) {
	v, err := parseBudget("50000")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, v)

	v, err = parseBudget("50000-100000")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, v)

	_, err = parseBudget("fifty grand")
	assert.Error(t, err)
}

func TestDiscoverInvalidDateRange(t *testing.T) {
	engine := NewEngine(testDB(t), testChatConfig())

	params := discoverParams("Chennai")
	params.EndDate = params.StartDate
	result, err := engine.Discover(context.Background(), params)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatched)
	assert.Empty(t, result.Screens)
}

func TestDiscoverMatchesLocation(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	seedScreen(t, db, "mdu-1", "Madurai", nil)
	engine := NewEngine(db, testChatConfig())

	result, err := engine.Discover(context.Background(), discoverParams("Chennai, Tamil Nadu"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Equal(t, "chn-1", result.Screens[0].Screen.ScreenID)
	assert.Equal(t, 1, result.TotalAvailable)
	assert.Empty(t, result.NotAvailableLocations)
}

func TestDiscoverReportsUnmatchedLocations(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)
	engine := NewEngine(db, testChatConfig())

	result, err := engine.Discover(context.Background(), discoverParams("Chennai", "Theni"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Theni"}, result.NotAvailableLocations)
}

func TestDiscoverAvailabilityMath(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", nil)

	// 5 of the 8 free slots are already booked for an overlapping window.
	start, _ := time.Parse(dateLayout, "2026-03-05")
	end, _ := time.Parse(dateLayout, "2026-03-20")
	require.NoError(t, db.UpsertBooking(context.Background(), &models.SlotBooking{
		ScreenID: "chn-1", CampaignID: "c1", BookedNumSlots: 5,
		StartDate: start, EndDate: end,
		Status: models.BookingStatusPaid, PaymentStatus: models.PaymentStatusPaid,
		Source: "CONSOLE",
	}))

	engine := NewEngine(db, testChatConfig())
	result, err := engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)

	avail := result.Screens[0].Availability
	assert.True(t, avail.Available)
	assert.Equal(t, 3, avail.AvailableSlots) // 10 total - 2 reserved - 5 booked
	assert.Equal(t, 1000.0, avail.EstimatedCost)
}

func TestDiscoverNoSlotsReason(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", func(s *models.Screen) {
		s.TotalSlots = 4
		s.ReservedSlots = 4
	})
	engine := NewEngine(db, testChatConfig())

	result, err := engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.False(t, result.Screens[0].Availability.Available)
	assert.Equal(t, ReasonNoSlots, result.Screens[0].Availability.Reason)
	assert.Equal(t, 1, result.UnavailabilityInfo[ReasonNoSlots])
}

func TestDiscoverBudgetReason(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", func(s *models.Screen) {
		s.PricePerSlot = 9000 // daily budget is 50000/10 = 5000
	})
	engine := NewEngine(db, testChatConfig())

	result, err := engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Equal(t, ReasonExceedsBudget, result.Screens[0].Availability.Reason)
	assert.Zero(t, result.TotalAvailable)
}

func TestDiscoverScheduledBlockWarning(t *testing.T) {
	db := testDB(t)
	blockedUntil, _ := time.Parse(dateLayout, "2026-03-05")
	seedScreen(t, db, "chn-1", "Chennai", func(s *models.Screen) {
		s.Status = models.ScreenStatusScheduledBlock
		s.BlockedUntil = &blockedUntil
	})
	engine := NewEngine(db, testChatConfig())

	result, err := engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Contains(t, result.Screens[0].Availability.BlockWarning, "2026-03-05")
}

func TestDiscoverExpiresStaleHolds(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "chn-1", "Chennai", func(s *models.Screen) {
		s.TotalSlots = 5
		s.ReservedSlots = 0
	})

	// An old assistant hold eats all slots until the sweep releases it.
	start, _ := time.Parse(dateLayout, "2026-03-01")
	end, _ := time.Parse(dateLayout, "2026-03-20")
	_, err := db.CreateHold(context.Background(), "chn-1", "c1", 5, start, end)
	require.NoError(t, err)

	engine := NewEngine(db, testChatConfig())
	result, err := engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Equal(t, ReasonNoSlots, result.Screens[0].Availability.Reason)

	// Holds created just now are not stale; force staleness with a zero max
	// age and rerun.
	cfg := testChatConfig()
	cfg.HoldExpiry = 0
	engine = NewEngine(db, cfg)
	result, err = engine.Discover(context.Background(), discoverParams("Chennai"))
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.True(t, result.Screens[0].Availability.Available)
}

func TestDiscoverAppliesFilters(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "out-1", "Chennai", nil)
	seedScreen(t, db, "in-1", "Chennai", func(s *models.Screen) {
		s.Environment = "Indoor"
		s.BrightnessNits = 800
	})
	engine := NewEngine(db, testChatConfig())

	params := discoverParams("Chennai")
	params.Filters = map[string]interface{}{
		"environment":     "Outdoor",
		"brightness_nits": map[string]interface{}{"gte": 3000.0},
		"bogus_column":    "x",
	}
	result, err := engine.Discover(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Equal(t, "out-1", result.Screens[0].Screen.ScreenID)
	assert.Equal(t, []string{"bogus_column"}, result.DroppedFilters)
}

func TestDiscoverAppliesExcludes(t *testing.T) {
	db := testDB(t)
	seedScreen(t, db, "out-1", "Chennai", nil)
	seedScreen(t, db, "in-1", "Chennai", func(s *models.Screen) { s.Environment = "Indoor" })
	engine := NewEngine(db, testChatConfig())

	params := discoverParams("Chennai")
	params.Excludes = map[string]interface{}{"environment": "Indoor"}
	result, err := engine.Discover(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Screens, 1)
	assert.Equal(t, "out-1", result.Screens[0].Screen.ScreenID)
}

func TestDiscoverResultLimit(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		seedScreen(t, db, id, "Chennai", nil)
	}
	engine := NewEngine(db, testChatConfig())

	params := discoverParams("Chennai")
	params.Limit = 2
	result, err := engine.Discover(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, result.Screens, 2)
	assert.Equal(t, 4, result.TotalMatched)
}

func TestTranslateFilterValue(t *testing.T) {
	v, ok := translateFilterValue("environment", "Outdoor")
	require.True(t, ok)
	assert.Equal(t, "Outdoor", v)

	v, ok = translateFilterValue("audio_supported", "True")
	require.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = translateFilterValue("brightness_nits", map[string]interface{}{"lt": 1000.0})
	require.True(t, ok)
	assert.Equal(t, database.NumericCondition{Op: "<", Value: 1000}, v)

	v, ok = translateFilterValue("spec_city", []interface{}{"Chennai", "Madurai"})
	require.True(t, ok)
	assert.Equal(t, []string{"Chennai", "Madurai"}, v)

	_, ok = translateFilterValue("nope", "x")
	assert.False(t, ok)

	_, ok = translateFilterValue("brightness_nits", map[string]interface{}{"like": "x"})
	assert.False(t, ok)
}
