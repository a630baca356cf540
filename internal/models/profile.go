// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Profile schema versions. The rules and hybrid pipelines share the base
// contract; LLM-enriched and research profiles stamp their own versions so
// consumers can tell how the classification was produced.
const (
	ProfileContractVersion         = "2.0.0"
	ProfileContractVersionLLM      = "2.2.0-llm-enriched"
	ProfileContractVersionResearch = "2.3.0-research-agent"
)

// Pipeline modes for the area profiler.
const (
	PipelineModeRules         = "rules"
	PipelineModeHybrid        = "hybrid"
	PipelineModeFullLLM       = "full_llm"
	PipelineModeResearchAgent = "research_agent"
)

// AreaProfile is the versioned output contract of the screen profiler.
type AreaProfile struct {
	Coordinates     Coordinates     `json:"coordinates"`
	GeoContext      GeoContext      `json:"geoContext"`
	Area            AreaResult      `json:"area"`
	Movement        MovementResult  `json:"movement"`
	DwellCategory   string          `json:"dwellCategory"`
	DwellConfidence float64         `json:"dwellConfidence"`
	DwellScore      float64         `json:"dwellScore"`
	DominanceRatio  float64         `json:"dominanceRatio"`
	RingAnalysis    RingAnalysis    `json:"ringAnalysis"`
	Reasoning       []string        `json:"reasoning"`
	Authority       AuthorityResult `json:"authority"`
	PlaceGroups     map[string]int  `json:"placeGroups"`
	Metadata        ProfileMetadata `json:"metadata"`
}

// MarshalJSON emits the profile with the top-level primaryType, areaContext
// and movementType aliases older consumers read. The aliases derive from the
// nested blocks at encode time so they cannot drift.
func (p AreaProfile) MarshalJSON() ([]byte, error) {
	type alias AreaProfile
	return json.Marshal(struct {
		alias
		PrimaryType  string `json:"primaryType"`
		AreaContext  string `json:"areaContext"`
		MovementType string `json:"movementType"`
	}{
		alias:        alias(p),
		PrimaryType:  p.Area.Type,
		AreaContext:  p.Area.Context,
		MovementType: p.Movement.Type,
	})
}

// Coordinates of the profiled screen.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoContext is the reverse-geocoded location context.
type GeoContext struct {
	City             string  `json:"city"`
	State            string  `json:"state"`
	Country          string  `json:"country"`
	CityTier         string  `json:"cityTier"`
	FormattedAddress string  `json:"formattedAddress"`
	Street           string  `json:"street,omitempty"`
	Sublocality      string  `json:"sublocality,omitempty"`
	PostalCode       string  `json:"postalCode,omitempty"`
	PlusCode         string  `json:"plusCode,omitempty"`
	LocationType     string  `json:"locationType,omitempty"`
	ViewportAreaKm2  float64 `json:"viewportAreaKm2,omitempty"`
}

// AreaResult is the area classification.
type AreaResult struct {
	Type                 string `json:"primaryType"`
	Context              string `json:"context"`
	Confidence           string `json:"confidence"`
	ClassificationDetail string `json:"classificationDetail"`
	DominantGroup        string `json:"dominantGroup,omitempty"`
	Reasoning            string `json:"reasoning,omitempty"`
}

// MovementResult describes traffic flow past the screen.
type MovementResult struct {
	Type    string   `json:"type"`
	Context string   `json:"context"`
	Signals []string `json:"signals,omitempty"`
}

// DwellResult is a derived dwell verdict.
type DwellResult struct {
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// RingAnalysis summarizes each analysis ring.
type RingAnalysis struct {
	Ring1  RingResult    `json:"ring1"`
	Ring15 *Ring15Result `json:"ring1_5,omitempty"`
	Ring2  Ring2Result   `json:"ring2"`
	Ring3  Ring3Result   `json:"ring3"`
}

// RingResult is the authority-detection ring summary. KeyVenues holds the
// anchor type key when an authority was detected.
type RingResult struct {
	RadiusM           int                `json:"radius"`
	PlacesFound       int                `json:"placesFound"`
	UniquePlaces      int                `json:"uniquePlaces"`
	KeyVenues         []string           `json:"keyVenues"`
	RejectedAuthority *RejectedAuthority `json:"rejectedAuthority,omitempty"`
}

// RejectedAuthority records the strongest authority candidate that failed
// validation, kept for threshold tuning.
type RejectedAuthority struct {
	Type      string `json:"type"`
	PlaceName string `json:"placeName"`
	Ratings   int    `json:"ratings"`
	Threshold int    `json:"threshold,omitempty"`
	Reason    string `json:"reason"`
}

// Ring15Result is the extended authority ring summary, present only when the
// tiered search ran and found a major anchor.
type Ring15Result struct {
	RadiusM     int          `json:"radius"`
	PlacesFound int          `json:"placesFound"`
	MajorAnchor *MajorAnchor `json:"majorAnchor,omitempty"`
}

// MajorAnchor names the landmark the extended search locked onto.
type MajorAnchor struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Ratings int    `json:"ratings"`
}

// Ring2Result is the adaptive classification ring summary.
type Ring2Result struct {
	RadiusM        int            `json:"radius"`
	BaseRadiusM    int            `json:"baseRadius"`
	Expanded       bool           `json:"expanded"`
	PlacesFound    int            `json:"placesFound"`
	UniquePlaces   int            `json:"uniquePlaces"`
	PlaceGroups    map[string]int `json:"placeGroups"`
	DominantGroup  string         `json:"dominantGroup,omitempty"`
	DominanceRatio float64        `json:"dominanceRatio"`
	SecondGroup    string         `json:"secondGroup,omitempty"`
	SecondRatio    float64        `json:"secondRatio,omitempty"`
	Skipped        bool           `json:"skipped"`
	SkipReason     string         `json:"reason,omitempty"`
}

// Ring3Result is the movement-context ring summary.
type Ring3Result struct {
	RadiusM            int    `json:"radius"`
	RoadType           string `json:"roadType,omitempty"`
	NearJunction       bool   `json:"nearJunction"`
	PedestrianFriendly bool   `json:"pedestrianFriendly"`
}

// AuthorityResult describes a detected authority anchor, if any.
type AuthorityResult struct {
	IsAuthority      bool    `json:"isAuthority"`
	AuthorityType    string  `json:"authorityType,omitempty"`
	AuthorityContext string  `json:"authorityContext,omitempty"`
	DetectedFrom     string  `json:"detectedFrom,omitempty"`
	AnchorName       string  `json:"anchorName,omitempty"`
	AnchorPlaceID    string  `json:"anchorPlaceId,omitempty"`
	Significance     int     `json:"significance,omitempty"`
	Ring             string  `json:"ring,omitempty"`
	DistanceM        float64 `json:"distanceM,omitempty"`
}

// ProfileMetadata carries pipeline provenance and cost accounting.
type ProfileMetadata struct {
	ComputedAt       time.Time `json:"computedAt"`
	APICallsMade     int       `json:"apiCallsMade"`
	Cached           bool      `json:"cached"`
	ProcessingTimeMS int64     `json:"processingTimeMs"`
	APIKeyConfigured bool      `json:"apiKeyConfigured"`
	Warnings         []string  `json:"warnings"`
	Version          string    `json:"version"`
	PipelineMode     string    `json:"pipelineMode"`
	LLM              *LLMTrace `json:"llm,omitempty"`
}

// LLMTrace records whether and why the LLM contributed to the profile.
type LLMTrace struct {
	Used         bool   `json:"used"`
	Mode         string `json:"mode,omitempty"`
	Reason       string `json:"reason,omitempty"`
	LatencyMS    int64  `json:"latencyMs,omitempty"`
	Cached       bool   `json:"cached,omitempty"`
	Verification string `json:"verification,omitempty"`
}
