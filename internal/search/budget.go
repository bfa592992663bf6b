// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

// primaryShare is the fraction of the budget reserved for the primary
// source in priority mode.
const primaryShare = 0.7

// SplitBudget returns the per-source quota when n sources share a budget
// of m equally. Every source gets at least 2, so the sum may exceed m; the
// merged list is truncated afterwards.
func SplitBudget(m, n int) int {
	if n <= 0 {
		return 0
	}
	q := m / n
	if q < 2 {
		q = 2
	}
	return q
}

// PriorityBudget splits m between one primary source and secondaries
// secondary sources. The primary gets floor(0.7*m), at least 1. The
// secondary pool is m minus the primary quota, split evenly; the first
// sources in registry order absorb the remainder. A secondary may get 0.
func PriorityBudget(m, secondaries int) (primary int, quotas []int) {
	if m <= 0 {
		return 0, make([]int, secondaries)
	}
	if secondaries == 0 {
		return m, nil
	}
	primary = int(float64(m) * primaryShare)
	if primary < 1 {
		primary = 1
	}
	return primary, spread(m-primary, secondaries)
}

// spread splits n into k near-equal parts; the first parts absorb the
// remainder.
func spread(n, k int) []int {
	parts := make([]int, k)
	if n <= 0 || k <= 0 {
		return parts
	}
	for i := range parts {
		parts[i] = n / k
		if i < n%k {
			parts[i]++
		}
	}
	return parts
}

func sum(quotas []int) int {
	total := 0
	for _, q := range quotas {
		total += q
	}
	return total
}
