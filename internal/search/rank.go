// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"

	"github.com/pdiddy/docsearch/pkg/types"
)

// rank orders results by score, highest first. Equal scores keep their
// merge order.
func rank(results []types.NormalizedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}

// clampScore bounds a heuristic score to [lo, hi].
func clampScore(s, lo, hi float64) float64 {
	switch {
	case s < lo:
		return lo
	case s > hi:
		return hi
	default:
		return s
	}
}

// recencyBonus rewards a publication year close to the current one:
// within 2 years earns full, within 5 earns half, older earns nothing.
func recencyBonus(year int, full float64) float64 {
	if year <= 0 {
		return 0
	}
	age := now().Year() - year
	switch {
	case age <= 2:
		return full
	case age <= 5:
		return full / 2
	default:
		return 0
	}
}
