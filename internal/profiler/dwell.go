// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"math"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// deriveDwell estimates how long people linger near the screen. An authority
// anchor fixes dwell by its own group weight; otherwise the score is the
// count-weighted average of group dwell weights adjusted for movement, falling
// back to the primary type's weight when the classification ring was empty.
func deriveDwell(primaryType, movementType string, counts map[string]int, authority *models.AuthorityResult) models.DwellResult {
	if authority != nil && authority.IsAuthority {
		return authorityDwell(authority.AuthorityType)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	var score, confidence float64
	if total > 0 {
		weighted := 0.0
		for group, n := range counts {
			weighted += groupDwellWeight(group) * float64(n)
		}
		score = weighted / float64(total)
		confidence = math.Min(1, float64(total)/25)
	} else {
		score = groupDwellWeight(primaryType)
		confidence = 0.5
	}

	score += movementDwellModifiers[movementType]
	score = math.Max(0, math.Min(1, score))

	return models.DwellResult{
		Category:   dwellBucket(score),
		Score:      math.Round(score*1000) / 1000,
		Confidence: math.Round(confidence*100) / 100,
	}
}

// authorityDwell assigns dwell directly from the anchor's group weight.
// People wait at hospitals and temples no matter what surrounds them.
func authorityDwell(authorityType string) models.DwellResult {
	w := groupDwellWeight(authorityType)
	switch {
	case w >= 0.75:
		return models.DwellResult{Category: DwellLongWait, Score: w, Confidence: 0.95}
	case w >= 0.50:
		return models.DwellResult{Category: DwellMediumWait, Score: w, Confidence: 0.90}
	default:
		return models.DwellResult{Category: DwellShortWait, Score: w, Confidence: 0.85}
	}
}

func groupDwellWeight(group string) float64 {
	if w, ok := dwellWeights[group]; ok {
		return w
	}
	return 0.5
}

func dwellBucket(score float64) string {
	switch {
	case score >= dwellLongThreshold:
		return DwellLongWait
	case score >= dwellMediumThreshold:
		return DwellMediumWait
	default:
		return DwellShortWait
	}
}
