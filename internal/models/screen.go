// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package models

import (
	"time"
)

// Screen statuses as synced from the console.
const (
	ScreenStatusVerified       = "VERIFIED"
	ScreenStatusScheduledBlock = "SCHEDULED_BLOCK"
	ScreenStatusPending        = "PENDING"
	ScreenStatusRejected       = "REJECTED"
)

// Profile statuses. Discovery only surfaces PROFILED and REPROFILE screens.
const (
	ProfileStatusProfiled   = "PROFILED"
	ProfileStatusReprofile  = "REPROFILE"
	ProfileStatusUnprofiled = "UNPROFILED"
)

// Booking statuses and payment states.
const (
	BookingStatusPaid    = "PAID"
	BookingStatusHold    = "HOLD"
	BookingStatusExpired = "EXPIRED"

	PaymentStatusPaid   = "PAID"
	PaymentStatusUnpaid = "UNPAID"
)

// BookingSourceXIGI marks holds created by the assistant flow. Only these
// are subject to automatic hold expiry.
const BookingSourceXIGI = "XIGI"

// Screen is the inventory record for a single DOOH screen, combining the
// console's hardware and commercial spec with the computed area profile.
type Screen struct {
	ScreenID string `json:"screenid" db:"screenid"`
	Name     string `json:"name" db:"name"`

	// Spec fields synced from the console.
	ScreenType         string  `json:"screen_type" db:"screen_type"`
	Orientation        string  `json:"orientation" db:"orientation"`
	Environment        string  `json:"environment" db:"environment"`
	SpecCity           string  `json:"spec_city" db:"spec_city"`
	SpecState          string  `json:"spec_state" db:"spec_state"`
	SpecPincode        string  `json:"spec_pincode" db:"spec_pincode"`
	SpecFullAddress    string  `json:"spec_full_address" db:"spec_full_address"`
	SpecLatitude       float64 `json:"spec_latitude" db:"spec_latitude"`
	SpecLongitude      float64 `json:"spec_longitude" db:"spec_longitude"`
	SpecNearestLandmark string `json:"spec_nearest_landmark" db:"spec_nearest_landmark"`

	Status        string `json:"status" db:"status"`
	ProfileStatus string `json:"profile_status" db:"profile_status"`
	ScreenOwner   string `json:"screen_owner" db:"screen_owner"`

	// Commercials and capacity.
	PricePerSlot  float64 `json:"price_per_slot" db:"price_per_slot"`
	TotalSlots    int     `json:"total_slots" db:"total_slots"`
	ReservedSlots int     `json:"reserved_slots" db:"reserved_slots"`
	SlotDurationSec int   `json:"slot_duration_sec" db:"slot_duration_sec"`
	LoopDurationSec int   `json:"loop_duration_sec" db:"loop_duration_sec"`

	// Hardware.
	ResolutionWidth  int     `json:"resolution_width" db:"resolution_width"`
	ResolutionHeight int     `json:"resolution_height" db:"resolution_height"`
	ScreenSizeWidth  float64 `json:"screen_size_width" db:"screen_size_width"`
	ScreenSizeHeight float64 `json:"screen_size_height" db:"screen_size_height"`
	TotalScreenArea  float64 `json:"total_screen_area" db:"total_screen_area"`
	BrightnessNits   int     `json:"brightness_nits" db:"brightness_nits"`
	MountingHeightFt float64 `json:"mounting_height_ft" db:"mounting_height_ft"`
	AudioSupported   bool    `json:"audio_supported" db:"audio_supported"`

	// Audience estimates supplied by the operator.
	DailyImpressions int `json:"daily_impressions" db:"daily_impressions"`
	DailyFootfall    int `json:"daily_footfall" db:"daily_footfall"`

	RestrictedCategories string `json:"restricted_categories" db:"restricted_categories"`

	// Scheduled block window, set when Status is SCHEDULED_BLOCK.
	BlockedFrom  *time.Time `json:"blocked_from,omitempty" db:"blocked_from"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" db:"blocked_until"`

	// Computed area profile, flattened from the profile contract.
	PrimaryType          string  `json:"primary_type" db:"primary_type"`
	AreaContext          string  `json:"area_context" db:"area_context"`
	Confidence           string  `json:"confidence" db:"confidence"`
	ClassificationDetail string  `json:"classification_detail" db:"classification_detail"`
	MovementType         string  `json:"movement_type" db:"movement_type"`
	DwellTime            string  `json:"dwell_time" db:"dwell_time"`
	CityTier             string  `json:"city_tier" db:"city_tier"`
	DominanceRatio       float64 `json:"dominance_ratio" db:"dominance_ratio"`
	Ring2PlaceGroups     string  `json:"ring2_place_groups" db:"ring2_place_groups"`
	ProfileJSON          string  `json:"profile_json,omitempty" db:"profile_json"`
	ProfileComputedAt    *time.Time `json:"profile_computed_at,omitempty" db:"profile_computed_at"`
	LLMUsed              bool    `json:"llm_used" db:"llm_used"`
	LLMMode              string  `json:"llm_mode" db:"llm_mode"`
	LLMReason            string  `json:"llm_reason" db:"llm_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SlotBooking is a reservation of ad slots on a screen for a date range.
type SlotBooking struct {
	ID             string    `json:"id" db:"id"`
	ScreenID       string    `json:"screenid" db:"screenid"`
	CampaignID     string    `json:"campaign_id" db:"campaign_id"`
	BookedNumSlots int       `json:"booked_num_slots" db:"booked_num_slots"`
	StartDate      time.Time `json:"start_date" db:"start_date"`
	EndDate        time.Time `json:"end_date" db:"end_date"`
	Status         string    `json:"status" db:"status"`
	PaymentStatus  string    `json:"payment_status" db:"payment_status"`
	Source         string    `json:"source" db:"source"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Overlaps reports whether the booking window intersects [start, end].
// Date ranges are inclusive on both ends.
func (b *SlotBooking) Overlaps(start, end time.Time) bool {
	return !b.StartDate.After(end) && !b.EndDate.Before(start)
}

// ConsumesSlots reports whether the booking counts against availability.
// PAID bookings and live HOLDs consume slots; EXPIRED holds do not.
func (b *SlotBooking) ConsumesSlots() bool {
	return b.Status == BookingStatusPaid || b.Status == BookingStatusHold
}
