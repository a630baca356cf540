// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: "", MaxOpenConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testScreen(id, city string) *models.Screen {
	return &models.Screen{
		ScreenID:         id,
		Name:             "Screen " + id,
		ScreenType:       "LED",
		Orientation:      "LANDSCAPE",
		Environment:      "OUTDOOR",
		SpecCity:         city,
		SpecState:        "Karnataka",
		SpecFullAddress:  "MG Road, " + city,
		SpecLatitude:     12.97,
		SpecLongitude:    77.59,
		Status:           models.ScreenStatusVerified,
		ProfileStatus:    models.ProfileStatusProfiled,
		PricePerSlot:     120,
		TotalSlots:       100,
		DailyImpressions: 50000,
	}
}

func TestUpsertAndGetScreen(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := testScreen("scr-1", "Bengaluru")
	require.NoError(t, db.UpsertScreen(ctx, s))

	got, err := db.GetScreen(ctx, "scr-1")
	require.NoError(t, err)
	assert.Equal(t, "Screen scr-1", got.Name)
	assert.Equal(t, "Bengaluru", got.SpecCity)
	assert.Equal(t, 120.0, got.PricePerSlot)

	// Re-sync updates spec fields.
	s.PricePerSlot = 150
	require.NoError(t, db.UpsertScreen(ctx, s))
	got, err = db.GetScreen(ctx, "scr-1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.PricePerSlot)

	n, err := db.CountScreens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetScreenNotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetScreen(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateProfileSurvivesSync(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := testScreen("scr-1", "Bengaluru")
	s.ProfileStatus = models.ProfileStatusUnprofiled
	require.NoError(t, db.UpsertScreen(ctx, s))

	profile := &models.AreaProfile{
		GeoContext: models.GeoContext{CityTier: "TIER_1"},
		Area: models.AreaResult{
			Type:                 "RETAIL",
			Context:              "Retail Zone",
			Confidence:           "high",
			ClassificationDetail: "DOMINANT",
		},
		Movement:       models.MovementResult{Type: "PEDESTRIAN"},
		DwellCategory:  "LONG_WAIT",
		DominanceRatio: 0.7,
		PlaceGroups:    map[string]int{"RETAIL": 20},
		Metadata: models.ProfileMetadata{
			ComputedAt: time.Now().UTC(),
			LLM:        &models.LLMTrace{Used: true, Mode: "resolve_ambiguity"},
		},
	}
	require.NoError(t, db.UpdateProfile(ctx, "scr-1", profile, `{"version":"2.0.0"}`))

	got, err := db.GetScreen(ctx, "scr-1")
	require.NoError(t, err)
	assert.Equal(t, "RETAIL", got.PrimaryType)
	assert.Equal(t, models.ProfileStatusProfiled, got.ProfileStatus)
	assert.True(t, got.LLMUsed)
	assert.Contains(t, got.Ring2PlaceGroups, "RETAIL:20")
	require.NotNil(t, got.ProfileComputedAt)

	// A fresh sync of spec fields must not wipe the profile.
	s.Name = "Renamed"
	s.ProfileStatus = models.ProfileStatusProfiled
	require.NoError(t, db.UpsertScreen(ctx, s))
	got, err = db.GetScreen(ctx, "scr-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "RETAIL", got.PrimaryType)
}

func TestUpdateProfileMissingScreen(t *testing.T) {
	db := testDB(t)
	err := db.UpdateProfile(context.Background(), "missing", &models.AreaProfile{}, "{}")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func seedInventory(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	screens := []*models.Screen{
		testScreen("blr-1", "Bengaluru"),
		testScreen("blr-2", "Bengaluru"),
		testScreen("mum-1", "Mumbai"),
	}
	screens[0].PrimaryType = "RETAIL"
	screens[0].BrightnessNits = 5000
	screens[1].PrimaryType = "TRANSIT"
	screens[1].Environment = "INDOOR"
	screens[1].BrightnessNits = 800
	screens[2].PrimaryType = "RETAIL"
	screens[2].Status = models.ScreenStatusPending

	for _, s := range screens {
		require.NoError(t, db.UpsertScreen(ctx, s))
	}
}

func TestQueryScreensFilters(t *testing.T) {
	db := testDB(t)
	seedInventory(t, db)
	ctx := context.Background()

	t.Run("city filter is case insensitive", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			Filters: map[string]interface{}{"spec_city": "bengaluru"},
		})
		require.NoError(t, err)
		assert.Len(t, screens, 2)
	})

	t.Run("eligible only drops pending screens", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			EligibleOnly: true,
			Filters:      map[string]interface{}{"primary_type": "RETAIL"},
		})
		require.NoError(t, err)
		require.Len(t, screens, 1)
		assert.Equal(t, "blr-1", screens[0].ScreenID)
	})

	t.Run("IN filter", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			Filters: map[string]interface{}{"primary_type": []string{"RETAIL", "TRANSIT"}},
		})
		require.NoError(t, err)
		assert.Len(t, screens, 3)
	})

	t.Run("numeric condition", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			Filters: map[string]interface{}{
				"brightness_nits": NumericCondition{Op: ">=", Value: 1000},
			},
		})
		require.NoError(t, err)
		require.Len(t, screens, 1)
		assert.Equal(t, "blr-1", screens[0].ScreenID)
	})

	t.Run("exclude", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			Filters:  map[string]interface{}{"spec_city": "Bengaluru"},
			Excludes: map[string]interface{}{"environment": "INDOOR"},
		})
		require.NoError(t, err)
		require.Len(t, screens, 1)
		assert.Equal(t, "blr-1", screens[0].ScreenID)
	})

	t.Run("text tokens", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			TextTokens: []string{"mg road", "mumbai"},
		})
		require.NoError(t, err)
		require.Len(t, screens, 1)
		assert.Equal(t, "mum-1", screens[0].ScreenID)
	})

	t.Run("unknown column dropped", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{
			Filters: map[string]interface{}{"nonsense; DROP TABLE screens": "x"},
		})
		require.NoError(t, err)
		assert.Len(t, screens, 3)
	})

	t.Run("limit and ordering", func(t *testing.T) {
		screens, err := db.QueryScreens(ctx, ScreenQuery{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, screens, 1)
	})
}

func TestDistinctValues(t *testing.T) {
	db := testDB(t)
	seedInventory(t, db)
	ctx := context.Background()

	cities, err := db.DistinctValues(ctx, "spec_city")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bengaluru", "Mumbai"}, cities)

	_, err = db.DistinctValues(ctx, "screens; --")
	assert.Error(t, err)
}

func TestScreensNeedingProfile(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	fresh := testScreen("done", "Bengaluru")
	stale := testScreen("stale", "Bengaluru")
	stale.ProfileStatus = models.ProfileStatusReprofile
	never := testScreen("never", "Bengaluru")
	never.ProfileStatus = models.ProfileStatusUnprofiled
	noCoords := testScreen("nocoords", "Bengaluru")
	noCoords.ProfileStatus = models.ProfileStatusUnprofiled
	noCoords.SpecLatitude = 0
	noCoords.SpecLongitude = 0

	for _, s := range []*models.Screen{fresh, stale, never, noCoords} {
		require.NoError(t, db.UpsertScreen(ctx, s))
	}

	pending, err := db.ScreensNeedingProfile(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, len(pending))
	for i, s := range pending {
		ids[i] = s.ScreenID
	}
	assert.ElementsMatch(t, []string{"stale", "never"}, ids)
}

func TestBookingsLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertScreen(ctx, testScreen("scr-1", "Bengaluru")))

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	hold, err := db.CreateHold(ctx, "scr-1", "camp-1", 10, start, end)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusHold, hold.Status)
	assert.Equal(t, models.BookingSourceXIGI, hold.Source)

	paid := &models.SlotBooking{
		ScreenID:       "scr-1",
		CampaignID:     "camp-2",
		BookedNumSlots: 20,
		StartDate:      start.AddDate(0, 0, 3),
		EndDate:        end.AddDate(0, 0, 3),
		Status:         models.BookingStatusPaid,
		PaymentStatus:  models.PaymentStatusPaid,
		Source:         "CONSOLE",
	}
	require.NoError(t, db.UpsertBooking(ctx, paid))

	t.Run("overlap query", func(t *testing.T) {
		byScreen, err := db.BookingsForScreens(ctx, []string{"scr-1"}, start, end)
		require.NoError(t, err)
		assert.Len(t, byScreen["scr-1"], 2)

		// A range after both bookings matches nothing.
		byScreen, err = db.BookingsForScreens(ctx,
			[]string{"scr-1"}, end.AddDate(0, 1, 0), end.AddDate(0, 1, 7))
		require.NoError(t, err)
		assert.Empty(t, byScreen["scr-1"])
	})

	t.Run("expiry only touches assistant holds", func(t *testing.T) {
		// Both records were just created; nothing is older than an hour.
		n, err := db.ExpireStaleHolds(ctx, time.Hour)
		require.NoError(t, err)
		assert.Zero(t, n)

		// With a zero max age every assistant hold is stale. The console
		// paid booking survives.
		n, err = db.ExpireStaleHolds(ctx, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		byScreen, err := db.BookingsForScreens(ctx, []string{"scr-1"}, start, end)
		require.NoError(t, err)
		require.Len(t, byScreen["scr-1"], 1)
		assert.Equal(t, models.BookingStatusPaid, byScreen["scr-1"][0].Status)
	})
}

func TestBookingsForScreensEmptyInput(t *testing.T) {
	db := testDB(t)
	byScreen, err := db.BookingsForScreens(context.Background(), nil, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, byScreen)
}

func TestConcurrentUpserts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			done <- db.UpsertScreen(ctx, testScreen(fmt.Sprintf("scr-%d", i%4), "Bengaluru"))
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	n, err := db.CountScreens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
