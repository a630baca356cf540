// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package maps

// City tiers. Unlisted cities default to TIER_3, which widens the adaptive
// ring search.
const (
	Tier1       = "TIER_1"
	Tier2       = "TIER_2"
	TierDefault = "TIER_3"
)

// cityTiers maps city names (including common Google Maps variants) onto
// tiers.
var cityTiers = map[string]string{
	// Tier 1 metros.
	"Mumbai": Tier1, "Delhi": Tier1, "Bangalore": Tier1,
	"Bengaluru": Tier1, "Bangalore Division": Tier1,
	"Chennai": Tier1, "Chennai District": Tier1,
	"Kolkata": Tier1, "Calcutta": Tier1,
	"Hyderabad": Tier1, "Hyderabad District": Tier1,
	"Pune": Tier1, "Pune District": Tier1,
	"Ahmedabad": Tier1, "Ahmedabad District": Tier1,
	"New Delhi": Tier1, "Central Delhi": Tier1,
	// Tier 2 large cities.
	"Jaipur": Tier2, "Surat": Tier2, "Lucknow": Tier2,
	"Kanpur": Tier2, "Nagpur": Tier2, "Indore": Tier2,
	"Thane": Tier2, "Bhopal": Tier2, "Visakhapatnam": Tier2,
	"Patna": Tier2, "Vadodara": Tier2, "Ghaziabad": Tier2,
	"Coimbatore": Tier2, "Kochi": Tier2, "Chandigarh": Tier2,
	"Nashik": Tier2, "Agra": Tier2, "Varanasi": Tier2,
	"Mysore": Tier2, "Mysuru": Tier2,
}

// CityTier returns the tier for a city name.
func CityTier(city string) string {
	if tier, ok := cityTiers[city]; ok {
		return tier
	}
	return TierDefault
}
