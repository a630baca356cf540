// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"context"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

// mapsSource is the slice of the maps client the ring engine needs. Tests
// substitute a scripted fake.
type mapsSource interface {
	Configured() bool
	ReverseGeocode(ctx context.Context, lat, lng float64) (maps.GeoContext, maps.Meta, error)
	NearbyPlaces(ctx context.Context, lat, lng float64, radius, maxResults int) ([]places.Place, maps.Meta, error)
	MovementContext(ctx context.Context, lat, lng float64, geo *maps.GeoContext) (maps.MovementContext, maps.Meta, error)
	EnrichPlaces(ctx context.Context, in []places.Place, limit, ring1Count int) ([]places.Place, maps.Meta)
}

// stepFunc appends one line to the profile's reasoning trail.
type stepFunc func(format string, args ...any)

// ring2Search is the outcome of the adaptive classification ring. Places is
// deduplicated; PlacesFound counts the raw results of the final fetch.
type ring2Search struct {
	Places      []places.Place
	PlacesFound int
	RadiusM     int
}

// ring15Search is the outcome of the tiered extended-authority search.
type ring15Search struct {
	Anchor        *models.AuthorityResult
	FoundRadiusM  int
	LastBatch     int
	UniqueScanned int
}

// fetchRing1 pulls the immediate ring used for authority detection. Returns
// the deduplicated places plus the raw result count.
func fetchRing1(ctx context.Context, src mapsSource, lat, lng float64) ([]places.Place, int, maps.Meta, error) {
	raw, meta, err := src.NearbyPlaces(ctx, lat, lng, ring1RadiusM, ring1MaxPlaces)
	if err != nil {
		return nil, 0, meta, err
	}
	return places.Dedupe(raw), len(raw), meta, nil
}

// fetchRing15 runs the tiered extended-authority search. Places accumulate
// across radii so an anchor visible at 200m is not crowded out at 750m; the
// first radius that yields a major anchor wins.
func fetchRing15(ctx context.Context, src mapsSource, lat, lng float64, step stepFunc) (ring15Search, maps.Meta) {
	var (
		result ring15Search
		meta   maps.Meta
	)
	meta.Cached = true

	accumulated := make(map[string]places.Place)
	for _, radius := range ring15SearchRadii {
		raw, callMeta, err := src.NearbyPlaces(ctx, lat, lng, radius, ring15MaxPlaces)
		meta.Cached = meta.Cached && callMeta.Cached
		meta.NetworkCalls += callMeta.NetworkCalls
		if err != nil {
			logging.Warn().Err(err).Int("radius", radius).Msg("Extended authority search failed")
			continue
		}
		result.LastBatch = len(raw)

		for _, p := range raw {
			if p.PlaceID != "" {
				accumulated[p.PlaceID] = p
			}
		}

		all := make([]places.Place, 0, len(accumulated))
		for _, p := range accumulated {
			all = append(all, p)
		}

		if anchor := detectMajorAnchor(lat, lng, all); anchor != nil {
			result.Anchor = anchor
			result.FoundRadiusM = radius
			step("Ring 1.5: Found authority at %dm radius", radius)
			break
		}
		step("Ring 1.5: No major anchor found at %dm radius", radius)
	}

	result.UniqueScanned = len(accumulated)
	step("Ring 1.5: Searched %d unique places across tiers", result.UniqueScanned)
	return result, meta
}

// fetchRing2 runs the adaptive classification ring: the base radius scales
// by city tier and expands in steps until enough unique places are found or
// the expansion budget runs out.
func fetchRing2(ctx context.Context, src mapsSource, lat, lng float64, cityTier string, maxResults int, step stepFunc) (ring2Search, maps.Meta, error) {
	multiplier := 1.0
	if m, ok := tierMultipliers[cityTier]; ok {
		multiplier = m
	}

	radius := int(float64(ring2BaseRadiusM) * multiplier)
	if radius < ring2MinRadiusM {
		radius = ring2MinRadiusM
	}

	var (
		result ring2Search
		meta   maps.Meta
	)
	meta.Cached = true

	for attempt := 0; ; attempt++ {
		raw, callMeta, err := src.NearbyPlaces(ctx, lat, lng, radius, maxResults)
		meta.Cached = meta.Cached && callMeta.Cached
		meta.NetworkCalls += callMeta.NetworkCalls
		if err != nil {
			return result, meta, err
		}

		deduped := places.Dedupe(raw)
		result.Places = deduped
		result.PlacesFound = len(raw)
		result.RadiusM = radius

		if len(deduped) >= ring2MinPlaces {
			step("Ring 2: Radius %dm yielded %d places (%d unique) - sufficient", radius, len(raw), len(deduped))
			return result, meta, nil
		}
		if attempt >= ring2MaxExpand {
			step("Ring 2: Max radius %dm reached with %d unique places (sparse area)", radius, len(deduped))
			return result, meta, nil
		}

		old := radius
		radius += ring2StepM
		if radius > ring2MaxRadiusM {
			radius = ring2MaxRadiusM
		}
		step("Ring 2: Radius %dm yielded only %d unique places, expanding to %dm", old, len(deduped), radius)

		logging.Debug().
			Int("radius", radius).
			Int("unique_places", len(deduped)).
			Int("expansion", attempt+1).
			Msg("Expanding classification ring")
	}
}
