// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package sync

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// consoleDateLayout is the date notation in console payloads.
const consoleDateLayout = "2006-01-02"

// ToScreen converts a console inventory record into the local screen
// model. The console id is required; every other field is optional and
// defaults to its zero value. Profile columns are never set here, so a
// plain inventory upsert leaves previously stored profile data intact.
func (cs *ConsoleScreen) ToScreen() (*models.Screen, error) {
	if cs.ID == 0 {
		return nil, fmt.Errorf("console screen missing id")
	}

	s := &models.Screen{
		ScreenID:             strconv.FormatInt(cs.ID, 10),
		Name:                 cs.ScreenName,
		ScreenType:           cs.ScreenType,
		Orientation:          cs.Orientation,
		Environment:          cs.Environment,
		SpecCity:             cs.City,
		SpecFullAddress:      cs.FullAddress,
		SpecLatitude:         numberToFloat(cs.Latitude),
		SpecLongitude:        numberToFloat(cs.Longitude),
		SpecNearestLandmark:  cs.NearestLandmark,
		Status:               cs.Status,
		ProfileStatus:        cs.ProfileStatus,
		ScreenOwner:          cs.Role,
		PricePerSlot:         numberToFloat(cs.BasePricePerSlotINR),
		TotalSlots:           cs.TotalSlotsPerLoop,
		ReservedSlots:        cs.ReservedSlots,
		SlotDurationSec:      cs.StandardAdDurationSec,
		ResolutionWidth:      intOrZero(cs.ResolutionWidth),
		ResolutionHeight:     intOrZero(cs.ResolutionHeight),
		ScreenSizeWidth:      numberToFloat(cs.ScreenWidth),
		ScreenSizeHeight:     numberToFloat(cs.ScreenHeight),
		BrightnessNits:       intOrZero(cs.BrightnessNits),
		MountingHeightFt:     numberToFloat(cs.MountingHeightFt),
		AudioSupported:       cs.AudioSupported,
		RestrictedCategories: strings.Join(cs.RestrictedCategories, ","),
	}

	s.TotalScreenArea = s.ScreenSizeWidth * s.ScreenSizeHeight

	s.LoopDurationSec = parseLoopLength(cs.LoopLengthSec)
	if s.LoopDurationSec == 0 && s.TotalSlots > 0 && s.SlotDurationSec > 0 {
		s.LoopDurationSec = s.TotalSlots * s.SlotDurationSec
	}

	if s.ProfileStatus == "" {
		s.ProfileStatus = models.ProfileStatusUnprofiled
	}

	// A scheduled block begins on the block date, so the screen takes
	// bookings only until then.
	if cs.ScheduledBlockDate != nil && *cs.ScheduledBlockDate != "" {
		if blockDate, err := time.Parse(consoleDateLayout, *cs.ScheduledBlockDate); err == nil {
			s.BlockedUntil = &blockDate
		}
	}

	return s, nil
}

// ToBooking converts a console slot booking into the local model. The
// console id is required, and date parse failures are errors so the
// sync counts them instead of storing a zero date range. A booking
// whose screen was deleted upstream keeps an empty screen id; it never
// matches local inventory and so never consumes slots.
func (cb *ConsoleBooking) ToBooking() (*models.SlotBooking, error) {
	if cb.ID == 0 {
		return nil, fmt.Errorf("console booking missing id")
	}

	start, err := time.Parse(consoleDateLayout, cb.StartDate)
	if err != nil {
		return nil, fmt.Errorf("booking %d start date %q: %w", cb.ID, cb.StartDate, err)
	}
	end, err := time.Parse(consoleDateLayout, cb.EndDate)
	if err != nil {
		return nil, fmt.Errorf("booking %d end date %q: %w", cb.ID, cb.EndDate, err)
	}

	b := &models.SlotBooking{
		ID:             strconv.FormatInt(cb.ID, 10),
		CampaignID:     cb.CampaignID,
		BookedNumSlots: cb.NumSlots,
		StartDate:      start,
		EndDate:        end,
		Status:         cb.Status,
		PaymentStatus:  cb.Payment,
		Source:         cb.Source,
		CreatedAt:      parseConsoleTime(cb.CreatedAt),
	}
	if cb.Screen != nil {
		b.ScreenID = strconv.FormatInt(*cb.Screen, 10)
	}
	return b, nil
}

// numberToFloat converts a json.Number to float64, treating absent or
// malformed values as zero.
func numberToFloat(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// intOrZero dereferences a nullable wire integer.
func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// parseLoopLength converts the console's loop length notation ("0:30",
// "1:05", or plain seconds) to seconds. Returns 0 when unparsable.
func parseLoopLength(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if minutes, seconds, found := strings.Cut(v, ":"); found {
		m, err1 := strconv.Atoi(strings.TrimSpace(minutes))
		s, err2 := strconv.Atoi(strings.TrimSpace(seconds))
		if err1 != nil || err2 != nil || m < 0 || s < 0 {
			return 0
		}
		return m*60 + s
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseConsoleTime parses the console's ISO 8601 datetime stamps,
// tolerating a missing fraction or offset. Returns the zero time when
// the value does not parse.
func parseConsoleTime(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", consoleDateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
