// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package places

import (
	"sort"
	"strings"
)

// Enrichment scoring weights. Place Details calls are budgeted, so the
// scorer front-loads the places whose details change the classification:
// anchors, their named satellites, and heavily-reviewed venues.
const (
	enrichAnchorBonus       = 1000
	enrichSatelliteBonus    = 800
	enrichRing1Bonus        = 600
	enrichRatingsCap        = 1000
	enrichHighRatingBonus   = 100
	enrichNameBonus         = 500
	enrichCoherenceBonus    = 400
	enrichCommodityPenalty  = 500
	enrichHighRatingMinimum = 4.0
)

// enrichAnchorTypes are the place types whose editorial summaries carry the
// most classification signal.
var enrichAnchorTypes = map[string]bool{
	"hospital":        true,
	"airport":         true,
	"train_station":   true,
	"railway_station": true,
	"transit_station": true,
	"metro_station":   true,
	"subway_station":  true,
	"bus_station":     true,
	"bus_terminal":    true,
	"shopping_mall":   true,
	"stadium":         true,
	"university":      true,
	"college":         true,
	"hindu_temple":    true,
	"mosque":          true,
	"church":          true,
	"gurudwara":       true,
	"amusement_park":  true,
	"courthouse":      true,
	"tourist_attraction": true,
}

// satelliteNamePatterns mark places that orbit a larger institution; their
// details usually name the parent anchor.
var satelliteNamePatterns = []string{
	"gate", "entrance", "platform", "terminal", "opd", "emergency",
	"campus", "pillar",
}

// institutionNameKeywords catch anchors whose Google types are generic but
// whose names give them away.
var institutionNameKeywords = []string{
	"hospital", "medical", "clinic", "college", "university", "school",
	"railway", "station", "metro", "airport", "mall", "stadium",
	"temple", "mandir", "masjid", "church", "gurudwara", "court",
}

// enrichCommodityTypes are small commodity places that frequently borrow an
// institution's name (the pharmacy outside the hospital) without being one.
var enrichCommodityTypes = map[string]bool{
	"atm":               true,
	"pharmacy":          true,
	"drugstore":         true,
	"convenience_store": true,
	"gas_station":       true,
	"taxi_stand":        true,
	"parking":           true,
}

// EnrichmentPriority scores how much a Place Details call is worth for p.
// inRing1 marks membership in the immediate authority ring.
func EnrichmentPriority(p Place, inRing1 bool) int {
	score := 0
	name := strings.ToLower(p.Name)

	for _, t := range p.Types {
		if enrichAnchorTypes[t] {
			score += enrichAnchorBonus
			break
		}
	}
	for _, pattern := range satelliteNamePatterns {
		if strings.Contains(name, pattern) {
			score += enrichSatelliteBonus
			break
		}
	}
	if inRing1 {
		score += enrichRing1Bonus
	}

	if p.UserRatingsTotal > enrichRatingsCap {
		score += enrichRatingsCap
	} else {
		score += p.UserRatingsTotal
	}
	if p.Rating >= enrichHighRatingMinimum && p.UserRatingsTotal > 0 {
		score += enrichHighRatingBonus
	}

	for _, keyword := range institutionNameKeywords {
		if strings.Contains(name, keyword) {
			score += enrichNameBonus
			break
		}
	}
	if distinctGroups(p.Types) == 1 {
		score += enrichCoherenceBonus
	}
	for _, t := range p.Types {
		if enrichCommodityTypes[t] {
			score -= enrichCommodityPenalty
			break
		}
	}
	return score
}

// RankForEnrichment returns the limit highest-priority places. The first
// ring1Count entries of in count as ring 1 members; ties keep input order,
// so ring 1 stays ahead of ring 2 at equal scores.
func RankForEnrichment(in []Place, limit, ring1Count int) []Place {
	type scored struct {
		place Place
		score int
	}
	ranked := make([]scored, len(in))
	for i, p := range in {
		ranked[i] = scored{p, EnrichmentPriority(p, i < ring1Count)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]Place, limit)
	for i := range out {
		out[i] = ranked[i].place
	}
	return out
}

// distinctGroups counts how many taxonomy groups the types resolve to.
func distinctGroups(types []string) int {
	seen := make(map[string]bool)
	for _, t := range types {
		if GenericTypes[t] {
			continue
		}
		if g, ok := typeToGroup[t]; ok {
			seen[g] = true
		}
	}
	return len(seen)
}
