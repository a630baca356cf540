// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package models

// DiscoverParams is the deterministic filter input for the discover engine,
// either parsed from an LLM understanding call or supplied directly.
type DiscoverParams struct {
	Location     []string               `json:"location,omitempty"`
	Filters      map[string]interface{} `json:"filters,omitempty"`
	Excludes     map[string]interface{} `json:"excludes,omitempty"`
	RemoveFilters []string              `json:"remove_filters,omitempty"`
	TextSearch   string                 `json:"text_search,omitempty"`
	StartDate    string                 `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      string                 `json:"end_date,omitempty"`
	BudgetRange  string                 `json:"budget_range,omitempty"`
	Limit        int                    `json:"limit,omitempty"`
}

// ScreenAvailability is the computed slot availability for one screen over
// a requested date range.
type ScreenAvailability struct {
	AvailableSlots int    `json:"available_slots"`
	TotalSlots     int    `json:"total_slots"`
	Available      bool   `json:"available"`
	Reason         string `json:"reason,omitempty"`
	BlockWarning   string `json:"block_warning,omitempty"`
	EstimatedCost  float64 `json:"estimated_cost,omitempty"`
}

// DiscoveredScreen pairs an inventory record with its availability.
type DiscoveredScreen struct {
	Screen       Screen             `json:"screen"`
	Availability ScreenAvailability `json:"availability"`
}

// DiscoverResult is the discover engine output.
type DiscoverResult struct {
	Screens            []DiscoveredScreen     `json:"screens"`
	TotalMatched       int                    `json:"total_matched"`
	TotalAvailable     int                    `json:"total_available"`
	AppliedFilters     map[string]interface{} `json:"applied_filters"`
	AppliedExcludes    map[string]interface{} `json:"applied_excludes,omitempty"`
	TextSearch         string                 `json:"text_search,omitempty"`
	UnavailabilityInfo map[string]int         `json:"unavailability_info,omitempty"`
	DroppedFilters     []string               `json:"dropped_filters,omitempty"`

	// NotAvailableLocations lists requested locations with no matching
	// inventory at all.
	NotAvailableLocations []string `json:"not_available_locations,omitempty"`
}

// RankedScreen is one entry of the call-2 ranking output merged with
// screen data for the response payload.
type RankedScreen struct {
	ScreenID     string  `json:"screenid"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	Score        float64 `json:"score"`
	AreaMatch    float64 `json:"area_match"`
	AudienceFit  float64 `json:"audience_fit"`
	ScreenQuality float64 `json:"screen_quality"`
	ContextBonus float64 `json:"context_bonus"`
	Eligibility  float64 `json:"eligibility"`
	Summary      string  `json:"summary"`
	Available    bool    `json:"available"`
}

// Redirect is a suggested console navigation, emitted by live mode.
type Redirect struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// ChatResponse is the payload of a completed chat turn.
type ChatResponse struct {
	SessionID         string                 `json:"session_id"`
	Reply             string                 `json:"reply"`
	QuickReplies      []string               `json:"quick_replies"`
	Screens           []RankedScreen         `json:"screens,omitempty"`
	Filters           map[string]interface{} `json:"filters,omitempty"`
	DiscoveryComplete bool                   `json:"discovery_complete"`
	Persona           string                 `json:"persona,omitempty"`
	Intent            string                 `json:"intent,omitempty"`
	Redirect          *Redirect              `json:"redirect,omitempty"`
	PendingEdit       *PendingGatewayEdit    `json:"pending_edit,omitempty"`
	UnavailabilityInfo map[string]int        `json:"unavailability_info,omitempty"`
}

// CreativeBrief is the strict creative-suggestion contract.
type CreativeBrief struct {
	Headline             string               `json:"headline"`
	FormatRecommendation FormatRecommendation `json:"format_recommendation"`
	VisualGuidelines     VisualGuidelines     `json:"visual_guidelines"`
	ContentStrategy      ContentStrategy      `json:"content_strategy"`
	AudienceContext      AudienceContext      `json:"audience_context"`
	Restrictions         CreativeRestrictions `json:"restrictions"`
	ProductionChecklist  []string             `json:"production_checklist"`
	CreativeIdea         CreativeIdea         `json:"creative_idea"`
}

// FormatRecommendation pins the deliverable format to the screen hardware.
type FormatRecommendation struct {
	PrimaryFormat  string `json:"primary_format"`
	FallbackFormat string `json:"fallback_format"`
	Resolution     string `json:"resolution"`
	AspectRatio    string `json:"aspect_ratio"`
	Orientation    string `json:"orientation"`
	DurationSec    int    `json:"duration_sec"`
	MaxFileSize    string `json:"max_file_size"`
	Audio          string `json:"audio"`
	FrameRate      string `json:"frame_rate"`
}

// VisualGuidelines shape the look of the creative.
type VisualGuidelines struct {
	Style          string     `json:"style"`
	ColorPalette   []string   `json:"color_palette"`
	Typography     Typography `json:"typography"`
	BrightnessNote string     `json:"brightness_note"`
	MotionStyle    string     `json:"motion_style"`
	Layout         string     `json:"layout"`
}

// Typography sizing guidance derived from viewing distance.
type Typography struct {
	HeadlineSize string `json:"headline_size"`
	BodyText     string `json:"body_text"`
	FontStyle    string `json:"font_style"`
}

// ContentStrategy shapes the message.
type ContentStrategy struct {
	PrimaryMessage  string   `json:"primary_message"`
	Tone            string   `json:"tone"`
	Hook            string   `json:"hook"`
	CallToAction    string   `json:"call_to_action"`
	KeyElements     []string `json:"key_elements"`
	StorytellingArc string   `json:"storytelling_arc"`
	Avoid           []string `json:"avoid"`
}

// AudienceContext explains who sees the screen and how.
type AudienceContext struct {
	WhoSeesThis     string `json:"who_sees_this"`
	ViewingBehavior string `json:"viewing_behavior"`
	AttentionWindow string `json:"attention_window"`
	PeakRelevance   string `json:"peak_relevance"`
}

// CreativeRestrictions carries compliance notes.
type CreativeRestrictions struct {
	BannedContent      string `json:"banned_content"`
	SensitiveZoneNotes string `json:"sensitive_zone_notes"`
	ComplianceReminder string `json:"compliance_reminder"`
}

// CreativeIdea is a concrete concept suggestion.
type CreativeIdea struct {
	Concept          string `json:"concept"`
	SceneDescription string `json:"scene_description"`
	ReferenceMood    string `json:"reference_mood"`
}
