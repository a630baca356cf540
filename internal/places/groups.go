// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package places normalizes Google place types into the group taxonomy used
// by the area profiler and deduplicates raw place lists before counting.
package places

// Place represents a single place returned by the nearby search.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Types            []string `json:"types"`
	Latitude         float64  `json:"lat"`
	Longitude        float64  `json:"lng"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	EditorialSummary string   `json:"editorial_summary,omitempty"`
}

// Groups groups place types into the fifteen-group taxonomy.
var Groups = map[string][]string{
	"TRANSIT": {
		"airport", "train_station", "railway_station", "transit_station",
		"bus_station", "bus_terminal", "subway_station", "metro_station",
		"taxi_stand", "parking", "gas_station", "light_rail_station",
	},
	"HEALTHCARE": {
		"hospital", "doctor", "dentist", "pharmacy", "physiotherapist",
		"health", "clinic", "medical_college", "veterinary_care",
	},
	"RELIGIOUS": {
		"hindu_temple", "temple", "mosque", "church", "synagogue",
		"place_of_worship", "gurudwara",
	},
	"EDUCATION": {
		"school", "university", "college", "primary_school", "secondary_school",
		"library", "preschool",
	},
	"GOVERNMENT": {
		"police", "local_government_office", "courthouse", "city_hall",
		"post_office", "embassy", "fire_station", "government_office",
	},
	"FINANCE": {"bank", "atm", "accounting", "insurance_agency"},
	"OFFICE":  {"corporate_office", "office", "lawyer", "real_estate_agency"},
	"RETAIL": {
		"shopping_mall", "department_store", "supermarket", "store",
		"clothing_store", "electronics_store", "furniture_store", "book_store",
		"convenience_store", "shoe_store", "jewelry_store", "hardware_store",
	},
	"FOOD_BEVERAGE": {
		"restaurant", "cafe", "bar", "food", "bakery", "meal_takeaway",
		"meal_delivery", "coffee_shop",
	},
	"ENTERTAINMENT": {
		"movie_theater", "night_club", "amusement_park", "casino",
		"bowling_alley", "theme_park",
	},
	"SPORTS":      {"stadium", "gym", "sports_complex", "arena"},
	"HOSPITALITY": {"lodging", "hotel", "motel", "resort"},
	"TOURISM":     {"tourist_attraction", "museum", "zoo", "aquarium", "art_gallery"},
	"INDUSTRIAL":  {"industrial_area", "storage", "warehouse", "factory"},
	"RESIDENTIAL": {"neighborhood", "premise", "subdivision", "residential_area"},
}

// GenericTypes never classify a place on their own.
var GenericTypes = map[string]bool{
	"establishment":     true,
	"point_of_interest": true,
	"place":             true,
	"premise":           true,
}

// GroupPriority resolves multi-group membership: the first matching group
// wins.
var GroupPriority = []string{
	"TRANSIT", "HEALTHCARE", "RELIGIOUS", "EDUCATION", "GOVERNMENT", "FINANCE",
	"OFFICE", "RETAIL", "FOOD_BEVERAGE", "ENTERTAINMENT", "SPORTS", "HOSPITALITY",
	"TOURISM", "INDUSTRIAL", "RESIDENTIAL",
}

// typeToGroup is the inverted Groups index, built once.
var typeToGroup = func() map[string]string {
	m := make(map[string]string)
	for group, types := range Groups {
		for _, t := range types {
			m[t] = group
		}
	}
	return m
}()

// GroupForTypes returns the highest-priority group for a set of place types,
// or "" when no recognized, non-generic type is present.
func GroupForTypes(types []string) string {
	groups := make(map[string]bool)
	for _, t := range types {
		if GenericTypes[t] {
			continue
		}
		if g, ok := typeToGroup[t]; ok {
			groups[g] = true
		}
	}
	if len(groups) == 0 {
		return ""
	}
	for _, g := range GroupPriority {
		if groups[g] {
			return g
		}
	}
	return ""
}

// CountByGroup deduplicates places and tallies them per group. Places whose
// types resolve to no group are excluded from the tally but still count
// toward the unique total.
func CountByGroup(in []Place) (map[string]int, int) {
	deduped := Dedupe(in)

	counts := make(map[string]int)
	for _, p := range deduped {
		g := GroupForTypes(p.Types)
		if g == "" {
			continue
		}
		counts[g]++
	}
	return counts, len(deduped)
}
