// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"math"
	"strings"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

// detectAuthority scans the immediate ring for an anchor institution that
// dominates the area regardless of the surrounding place mix. Checks run in
// precedence order: medical teaching institutes, hospital entrances, then
// the general anchor table. When nothing qualifies, the strongest rejected
// candidate is returned so the profile can explain why.
func detectAuthority(lat, lng float64, ring []places.Place) (*models.AuthorityResult, *models.RejectedAuthority) {
	if found := detectMedicalInstitute(lat, lng, ring); found != nil {
		return found, nil
	}
	if found := detectHospitalEntrance(lat, lng, ring); found != nil {
		return found, nil
	}
	return detectStandardAnchor(lat, lng, ring)
}

// detectMedicalInstitute catches medical colleges that Google files under
// education types. A place qualifies when it carries a university or college
// type alongside a health type or a medical-sounding name, at hospital-level
// significance.
func detectMedicalInstitute(lat, lng float64, ring []places.Place) *models.AuthorityResult {
	threshold := authoritySignificance["hospital"]

	for _, p := range ring {
		if !hasAnyOf(p.Types, "university", "college") {
			continue
		}
		medical := hasAnyOf(p.Types, "health", "hospital", "doctor") ||
			nameMatchesAny(p.Name, medicalNamePatterns)
		if !medical || p.UserRatingsTotal < threshold {
			continue
		}
		return &models.AuthorityResult{
			IsAuthority:      true,
			AuthorityType:    "HEALTHCARE",
			AuthorityContext: "Medical Institute Zone",
			DetectedFrom:     "medical_institute",
			AnchorName:       p.Name,
			AnchorPlaceID:    p.PlaceID,
			Significance:     p.UserRatingsTotal,
			Ring:             "ring1",
			DistanceM:        haversineM(lat, lng, p.Latitude, p.Longitude),
		}
	}
	return nil
}

func detectHospitalEntrance(lat, lng float64, ring []places.Place) *models.AuthorityResult {
	threshold := authoritySignificance["hospital"]

	for _, p := range ring {
		if !hasAnyOf(p.Types, "hospital") || p.UserRatingsTotal < threshold {
			continue
		}
		return &models.AuthorityResult{
			IsAuthority:      true,
			AuthorityType:    "HEALTHCARE",
			AuthorityContext: "Hospital Entrance Zone",
			DetectedFrom:     "hospital",
			AnchorName:       p.Name,
			AnchorPlaceID:    p.PlaceID,
			Significance:     p.UserRatingsTotal,
			Ring:             "ring1",
			DistanceM:        haversineM(lat, lng, p.Latitude, p.Longitude),
		}
	}
	return nil
}

// detectStandardAnchor runs the general anchor table. Anchors below twice
// their significance threshold must also look the part by name. The first
// qualifying anchor wins; Google orders nearby results by prominence. While
// scanning, the highest-rated below-threshold candidate is tracked as the
// rejection to report.
func detectStandardAnchor(lat, lng float64, ring []places.Place) (*models.AuthorityResult, *models.RejectedAuthority) {
	var rejected *models.RejectedAuthority

	for _, p := range ring {
		for _, t := range p.Types {
			anchor, ok := authorityTypes[t]
			if !ok {
				continue
			}

			threshold, ok := authoritySignificance[t]
			if !ok {
				threshold = authoritySignificanceDefault
			}

			if p.UserRatingsTotal < threshold {
				if rejected == nil || p.UserRatingsTotal > rejected.Ratings {
					rejected = &models.RejectedAuthority{
						Type:      t,
						PlaceName: p.Name,
						Ratings:   p.UserRatingsTotal,
						Threshold: threshold,
						Reason:    rejectBelowSignificance,
					}
				}
				continue
			}

			if p.UserRatingsTotal < threshold*2 {
				patterns, hasPatterns := anchorNamePatterns[t]
				if hasPatterns && !nameMatchesAny(p.Name, patterns) {
					if rejected == nil {
						rejected = &models.RejectedAuthority{
							Type:      t,
							PlaceName: p.Name,
							Ratings:   p.UserRatingsTotal,
							Reason:    rejectNamePattern,
						}
					}
					continue
				}
			}

			return &models.AuthorityResult{
				IsAuthority:      true,
				AuthorityType:    anchor.AreaType,
				AuthorityContext: anchor.Context,
				DetectedFrom:     t,
				AnchorName:       p.Name,
				AnchorPlaceID:    p.PlaceID,
				Significance:     p.UserRatingsTotal,
				Ring:             "ring1",
				DistanceM:        haversineM(lat, lng, p.Latitude, p.Longitude),
			}, nil
		}
	}

	return nil, rejected
}

// detectMajorAnchor scans the extended ring for a major institution: an
// anchor type above its major rating threshold, or a heavily rated transit
// place with a station-like name. The name path earns a score bonus so named
// termini beat anonymous stops. The highest score wins.
func detectMajorAnchor(lat, lng float64, ring []places.Place) *models.AuthorityResult {
	var (
		best      *models.AuthorityResult
		bestScore int
	)

	record := func(p places.Place, detectedFrom string, anchor authorityAnchor, score int) {
		if score <= bestScore {
			return
		}
		bestScore = score
		best = &models.AuthorityResult{
			IsAuthority:      true,
			AuthorityType:    anchor.AreaType,
			AuthorityContext: anchor.Context,
			DetectedFrom:     detectedFrom,
			AnchorName:       p.Name,
			AnchorPlaceID:    p.PlaceID,
			Significance:     p.UserRatingsTotal,
			Ring:             "ring1_5",
			DistanceM:        haversineM(lat, lng, p.Latitude, p.Longitude),
		}
	}

	for _, p := range ring {
		for _, t := range p.Types {
			threshold, major := ring15MajorThresholds[t]
			if !major || p.UserRatingsTotal < threshold {
				continue
			}
			record(p, t, ring15Anchors[t], p.UserRatingsTotal)
		}

		// Indian transit hubs often carry incomplete types. A busy
		// transit-typed place whose name reads like a terminus qualifies
		// even below its type threshold.
		if p.UserRatingsTotal >= ring15TransitNameMinRatings &&
			hasAnyOf(p.Types, "transit_station", "bus_station") &&
			nameMatchesAny(p.Name, ring15TransitNamePatterns) {
			record(p, "transit_name_pattern",
				authorityAnchor{"TRANSIT", "Near Major Transit Hub"},
				p.UserRatingsTotal+ring15TransitNameBonus)
		}
	}

	return best
}

func hasAnyOf(types []string, wants ...string) bool {
	for _, t := range types {
		for _, w := range wants {
			if t == w {
				return true
			}
		}
	}
	return false
}

func nameMatchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pat := range patterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

// haversineM returns the great-circle distance between two points in meters.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusM = 6371000

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
