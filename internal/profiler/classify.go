// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"fmt"
	"math"
	"sort"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// dominance extracts the top two groups and their ratios from a group tally.
type dominance struct {
	Dominant      string
	DominantRatio float64
	Second        string
	SecondRatio   float64
	Classified    int
	Groups        int
}

// computeDominance ranks place groups by count. Ratios are over classified
// places only, so generic-typed places dilute confidence but not dominance.
func computeDominance(counts map[string]int) dominance {
	total := 0
	for _, n := range counts {
		total += n
	}

	d := dominance{Classified: total, Groups: len(counts)}
	if total == 0 {
		return d
	}

	type entry struct {
		group string
		count int
	}
	ranked := make([]entry, 0, len(counts))
	for g, n := range counts {
		ranked = append(ranked, entry{g, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].group < ranked[j].group
	})

	d.Dominant = ranked[0].group
	d.DominantRatio = float64(ranked[0].count) / float64(total)
	if len(ranked) > 1 {
		d.Second = ranked[1].group
		d.SecondRatio = float64(ranked[1].count) / float64(total)
	}
	return d
}

// resolvePrimaryType maps a dominance profile onto an area type and a
// classification detail.
func resolvePrimaryType(d dominance) (areaType, detail string) {
	switch {
	case d.DominantRatio >= thresholdDominant:
		return d.Dominant, detailDominant
	case d.DominantRatio >= thresholdStrongBias:
		return "MIXED_BIASED", "STRONG_BIAS_TOWARD_" + d.Dominant
	case d.DominantRatio >= thresholdModerateBias:
		return "MIXED_BIASED", "MODERATE_BIAS_TOWARD_" + d.Dominant
	case d.DominantRatio >= thresholdWeakBias:
		return "MIXED", "WEAK_BIAS_TOWARD_" + d.Dominant
	}
	if isCoDominant(d) {
		return "MIXED", fmt.Sprintf("CO_DOMINANT_%s_%s", d.Dominant, d.Second)
	}
	return "MIXED", detailDiverse
}

// isCoDominant reports whether the top two ratios sit within the
// co-dominance gap.
func isCoDominant(d dominance) bool {
	return d.Second != "" && math.Abs(d.DominantRatio-d.SecondRatio) < coDominanceGap
}

// deriveContext produces the audience context label. Authority context wins
// outright; bias details get graded mixed-use labels.
func deriveContext(areaType, detail string, d dominance, authority *models.AuthorityResult) string {
	if authority != nil && authority.IsAuthority {
		return authority.AuthorityContext
	}

	dominantLabel := contextMap[d.Dominant]
	if dominantLabel == "" {
		dominantLabel = d.Dominant
	}

	switch {
	case hasPrefix(detail, "STRONG_BIAS_TOWARD_"):
		return fmt.Sprintf("Mixed Use (primarily %s)", dominantLabel)
	case hasPrefix(detail, "MODERATE_BIAS_TOWARD_"):
		return fmt.Sprintf("Mixed Use (leaning %s)", dominantLabel)
	case hasPrefix(detail, "WEAK_BIAS_TOWARD_"):
		return fmt.Sprintf("Diverse Mixed Use (slight %s)", dominantLabel)
	case hasPrefix(detail, "CO_DOMINANT_"):
		return "Diverse Commercial Hub"
	}

	if label, ok := contextMap[areaType]; ok {
		return label
	}
	return "High-Density Mixed Use"
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// computeConfidence grades the classification by evidence volume, penalizing
// counts gathered only after ring expansion.
func computeConfidence(uniquePlaces, radiusM, groups int) string {
	adjusted := uniquePlaces
	if radiusM > ring2BaseRadiusM {
		adjusted -= 5 * ((radiusM - ring2BaseRadiusM) / ring2StepM)
	}

	switch {
	case adjusted >= 40 || groups >= 8:
		return ConfidenceHigh
	case adjusted >= 20 || groups >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
