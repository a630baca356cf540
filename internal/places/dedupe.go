// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package places

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

const (
	// coordPrecision rounds coordinates to ~1.1m cells for collision checks.
	coordPrecision = 5

	// nameSimilarityThreshold marks two names in the same cell as duplicates.
	nameSimilarityThreshold = 0.85
)

// legalSuffixes are stripped from names before similarity comparison, so
// "Apollo Pharmacy Pvt Ltd" and "Apollo Pharmacy" collapse.
var legalSuffixes = []string{
	" pvt ltd", " private limited", " limited", " ltd", " inc", " llc",
}

// Dedupe removes duplicate places in two passes: exact place_id repeats,
// then same-cell entries whose normalized names are near-identical.
func Dedupe(in []Place) []Place {
	seenIDs := make(map[string]bool)
	seenNames := make(map[string][]string) // coord cell -> normalized names

	out := make([]Place, 0, len(in))
	for _, p := range in {
		if p.PlaceID != "" {
			if seenIDs[p.PlaceID] {
				continue
			}
			seenIDs[p.PlaceID] = true
		}

		cell := coordKey(p.Latitude, p.Longitude, coordPrecision)
		name := NormalizeName(p.Name)

		// Nothing to identify the place by.
		if name == "" && p.Latitude == 0 && p.Longitude == 0 && p.PlaceID == "" {
			continue
		}

		duplicate := false
		for _, existing := range seenNames[cell] {
			if name != "" && existing != "" && Similarity(name, existing) >= nameSimilarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		if name != "" {
			seenNames[cell] = append(seenNames[cell], name)
		}
		out = append(out, p)
	}
	return out
}

// NormalizeName lowercases, strips punctuation and legal suffixes.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			normalized = normalized[:len(normalized)-len(suffix)]
			break
		}
	}
	return strings.TrimSpace(normalized)
}

// coordKey builds a cell key from rounded coordinates.
func coordKey(lat, lng float64, precision int) string {
	factor := math.Pow10(precision)
	return fmt.Sprintf("%v_%v", math.Round(lat*factor)/factor, math.Round(lng*factor)/factor)
}

// Similarity computes the Ratcliff/Obershelp ratio between two strings:
// twice the number of matching characters over the total length. Matching
// characters are found by recursively locating the longest common substring.
func Similarity(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	matches := matchingBlocks([]rune(a), []rune(b))
	return 2.0 * float64(matches) / float64(len([]rune(a))+len([]rune(b)))
}

// matchingBlocks returns the total matched length between a and b.
func matchingBlocks(a, b []rune) int {
	aStart, bStart, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlocks(a[:aStart], b[:bStart])
	total += matchingBlocks(a[aStart+size:], b[bStart+size:])
	return total
}

// longestCommonBlock finds the longest common substring via dynamic
// programming over rune slices.
func longestCommonBlock(a, b []rune) (aStart, bStart, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return aStart, bStart, size
}
