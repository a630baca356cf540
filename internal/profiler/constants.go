// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

// Package profiler classifies the area around a screen's coordinates using
// concentric rings of Google Places data: an immediate authority ring,
// a tiered extended-authority search, an adaptive classification ring, and a
// movement ring. The classification drives audience context, dwell time, and
// campaign relevance for every screen in the inventory.
package profiler

// Dominance thresholds on the ratio of the leading place group.
const (
	thresholdDominant     = 0.55
	thresholdStrongBias   = 0.40
	thresholdModerateBias = 0.28
	thresholdWeakBias     = 0.18

	// coDominanceGap marks the top two groups as co-dominant when their
	// ratios are this close.
	coDominanceGap = 0.08
)

// Ring radii and expansion for the adaptive classification ring.
const (
	ring1RadiusM     = 75
	ring1MaxPlaces   = 20
	ring15MaxPlaces  = 60
	ring2BaseRadiusM = 500
	ring2MinRadiusM  = 300
	ring2MaxRadiusM  = 1500
	ring2MinPlaces   = 15
	ring2StepM       = 300
	ring2MaxExpand   = 3
	ring3RadiusM     = 200
)

// tierMultipliers scale the ring 2 base radius by city tier. Dense tier 1
// metros shrink the ring, sparse tier 3 towns widen it.
var tierMultipliers = map[string]float64{
	"TIER_1": 0.9,
	"TIER_2": 1.0,
	"TIER_3": 1.3,
}

// Ring 1.5 tiered extended-authority search.
var (
	ring15SearchRadii = []int{200, 400, 750}

	// ring15MajorThresholds gate which anchors count as major at distance,
	// expressed as minimum user rating totals per type.
	ring15MajorThresholds = map[string]int{
		"hospital":        500,
		"airport":         100,
		"train_station":   200,
		"transit_station": 150,
		"bus_station":     200,
		"metro_station":   150,
		"subway_station":  150,
		"shopping_mall":   500,
		"stadium":         300,
		"university":      500,
	}

	// ring15TransitNamePatterns qualify heavily-rated transit places whose
	// type alone is ambiguous.
	ring15TransitNamePatterns = []string{
		"railway", "junction", "central", "terminus", "terminal",
		"bus stand", "bus terminal", "city station", "main station",
	}

	// ring15Anchors bind each major anchor type to the area group it imposes
	// and the at-distance context label.
	ring15Anchors = map[string]authorityAnchor{
		"hospital":        {"HEALTHCARE", "Near Major Hospital Zone"},
		"airport":         {"TRANSIT", "Near Airport Zone"},
		"train_station":   {"TRANSIT", "Near Railway Station Zone"},
		"transit_station": {"TRANSIT", "Near Major Transit Hub"},
		"bus_station":     {"TRANSIT", "Near Bus Terminal Zone"},
		"metro_station":   {"TRANSIT", "Near Metro Station Zone"},
		"subway_station":  {"TRANSIT", "Near Metro Station Zone"},
		"shopping_mall":   {"RETAIL", "Near Shopping Mall Zone"},
		"stadium":         {"SPORTS", "Near Stadium Zone"},
		"university":      {"EDUCATION", "Near University Zone"},
	}
)

// Name-based transit detection in ring 1.5.
const (
	ring15TransitNameMinRatings = 150
	ring15TransitNameBonus      = 100
)

// Dwell weights per place group, on a 0-1 scale of expected lingering.
var dwellWeights = map[string]float64{
	"HEALTHCARE":    0.90,
	"RELIGIOUS":     0.85,
	"EDUCATION":     0.80,
	"ENTERTAINMENT": 0.75,
	"FOOD_BEVERAGE": 0.70,
	"TOURISM":       0.70,
	"RETAIL":        0.60,
	"SPORTS":        0.55,
	"HOSPITALITY":   0.50,
	"FINANCE":       0.40,
	"GOVERNMENT":    0.40,
	"OFFICE":        0.35,
	"TRANSIT":       0.25,
	"INDUSTRIAL":    0.20,
	"RESIDENTIAL":   0.15,
}

// movementDwellModifiers adjust the dwell score for how traffic moves past
// the screen.
var movementDwellModifiers = map[string]float64{
	"PASS_BY":     -0.25,
	"STOP_AND_GO": 0,
	"SLOW_FLOW":   0.10,
	"PEDESTRIAN":  0.20,
}

// Dwell buckets.
const (
	dwellLongThreshold   = 0.65
	dwellMediumThreshold = 0.35

	DwellLongWait   = "LONG_WAIT"
	DwellMediumWait = "MEDIUM_WAIT"
	DwellShortWait  = "SHORT_WAIT"
)

// Movement types.
const (
	MovementPassBy     = "PASS_BY"
	MovementStopAndGo  = "STOP_AND_GO"
	MovementSlowFlow   = "SLOW_FLOW"
	MovementPedestrian = "PEDESTRIAN"
)

// Classification detail markers.
const (
	detailDominant          = "DOMINANT"
	detailDiverse           = "DIVERSE"
	detailAuthorityOverride = "AUTHORITY_OVERRIDE"
	detailExtendedAuthority = "EXTENDED_AUTHORITY"
	detailLLMOverride       = "LLM_OVERRIDE"
	detailLLMClassified     = "LLM_CLASSIFIED"
	detailResearchAgent     = "RESEARCH_AGENT"
	detailParseError        = "PARSE_ERROR"
)

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// authorityAnchor binds an anchor place type to the area it dominates.
type authorityAnchor struct {
	AreaType string
	Context  string
}

// authorityTypes maps anchor place types to the area classification they
// impose when the screen sits in their immediate ring.
var authorityTypes = map[string]authorityAnchor{
	"hospital":         {"HEALTHCARE", "Hospital Zone"},
	"clinic":           {"HEALTHCARE", "Medical Hub"},
	"medical_college":  {"HEALTHCARE", "Medical College Zone"},
	"university":       {"EDUCATION", "University Campus Zone"},
	"college":          {"EDUCATION", "College Zone"},
	"school":           {"EDUCATION", "School Zone"},
	"airport":          {"TRANSIT", "Airport Zone"},
	"railway_station":  {"TRANSIT", "Railway Station Periphery"},
	"train_station":    {"TRANSIT", "Railway Station Periphery"},
	"metro_station":    {"TRANSIT", "Metro Station Area"},
	"subway_station":   {"TRANSIT", "Metro Station Area"},
	"bus_terminal":     {"TRANSIT", "Bus Terminal Zone"},
	"bus_station":      {"TRANSIT", "Bus Station Area"},
	"shopping_mall":    {"RETAIL", "Shopping Mall Zone"},
	"stadium":          {"SPORTS", "Stadium Zone"},
	"arena":            {"SPORTS", "Stadium Zone"},
	"amusement_park":   {"ENTERTAINMENT", "Amusement Park Zone"},
	"theme_park":       {"ENTERTAINMENT", "Amusement Park Zone"},
	"courthouse":       {"GOVERNMENT", "Courthouse / Judicial Zone"},
	"city_hall":        {"GOVERNMENT", "Civic Administration Zone"},
	"hindu_temple":     {"RELIGIOUS", "Temple Zone"},
	"temple":           {"RELIGIOUS", "Temple Zone"},
	"mosque":           {"RELIGIOUS", "Mosque Zone"},
	"gurudwara":        {"RELIGIOUS", "Gurudwara Zone"},
	"church":           {"RELIGIOUS", "Church Zone"},
	"synagogue":        {"RELIGIOUS", "Synagogue Zone"},
	"tourist_attraction": {"TOURISM", "Landmark Zone"},
}

// authoritySignificance is the minimum user rating total an anchor needs to
// qualify as an authority, per type. Unlisted types use the default.
var authoritySignificance = map[string]int{
	"hospital":        100,
	"clinic":          30,
	"medical_college": 50,
	"university":      150,
	"college":         75,
	"shopping_mall":   300,
	"airport":         200,
	"railway_station": 50,
	"train_station":   50,
	"metro_station":   50,
	"subway_station":  50,
	"bus_terminal":    40,
	"bus_station":     30,
	"stadium":         200,
	"arena":           200,
	"amusement_park":  200,
	"theme_park":      200,
	"courthouse":      30,
	"city_hall":       30,
	"hindu_temple":    50,
	"temple":          50,
	"mosque":          50,
	"gurudwara":       50,
	"church":          30,
	"synagogue":       30,
}

const authoritySignificanceDefault = 25

// anchorNamePatterns validate anchors whose rating totals sit below twice
// the significance threshold: the name must look like the institution type.
var anchorNamePatterns = map[string][]string{
	"hospital":        {"hospital", "medical", "health", "clinic", "care"},
	"clinic":          {"clinic", "medical", "care", "health"},
	"university":      {"university", "institute", "iit", "nit", "iim"},
	"college":         {"college", "institute"},
	"school":          {"school", "vidyalaya", "academy"},
	"railway_station": {"railway", "station", "junction", "terminus"},
	"train_station":   {"railway", "station", "junction", "terminus"},
	"metro_station":   {"metro", "station"},
	"subway_station":  {"metro", "station"},
	"bus_terminal":    {"bus", "terminal", "stand", "depot"},
	"bus_station":     {"bus", "stand", "station", "depot"},
	"shopping_mall":   {"mall", "plaza", "centre", "center", "galleria"},
	"stadium":         {"stadium", "arena", "ground"},
	"arena":           {"stadium", "arena", "ground"},
	"airport":         {"airport", "terminal"},
	"hindu_temple":    {"temple", "mandir", "devasthan"},
	"temple":          {"temple", "mandir", "devasthan"},
	"mosque":          {"masjid", "mosque", "dargah"},
	"gurudwara":       {"gurudwara", "gurdwara", "sahib"},
	"church":          {"church", "cathedral", "basilica"},
}

// medicalNamePatterns identify medical teaching institutions misfiled as
// plain universities.
var medicalNamePatterns = []string{
	"medical", "aiims", "medicine", "hospital", "health science",
	"nursing", "dental college", "medical college",
}

// Authority rejection reasons carried in debug traces.
const (
	rejectBelowSignificance = "BELOW_SIGNIFICANCE_THRESHOLD"
	rejectNamePattern       = "NAME_PATTERN_MISMATCH"
)

// contextMap turns an area type into an audience context label.
var contextMap = map[string]string{
	"HEALTHCARE":    "Healthcare Catchment",
	"RELIGIOUS":     "Religious Catchment",
	"TRANSIT":       "Transit Corridor",
	"EDUCATION":     "Education Hub",
	"GOVERNMENT":    "Civic / Government Zone",
	"FINANCE":       "Banking / Finance Zone",
	"ENTERTAINMENT": "Entertainment Zone",
	"SPORTS":        "Sports Zone",
	"HOSPITALITY":   "Hotel / Hospitality Zone",
	"RETAIL":        "Retail Zone",
	"OFFICE":        "Office Cluster",
	"RESIDENTIAL":   "Residential Zone",
	"INDUSTRIAL":    "Industrial Zone",
	"FOOD_BEVERAGE": "Food & Dining Cluster",
	"TOURISM":       "Tourist Zone",
	"MIXED":         "High-Density Mixed Use",
	"MIXED_BIASED":  "High-Density Mixed Use",
}
