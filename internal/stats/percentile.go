// Package stats implements the pure percentile and aggregation math used by
// the ranking and dashboard services. Nothing in this package performs I/O.
package stats

import (
	"math"
	"sort"
)

// Standing returns the percentile standing of target against a population
// sorted ascending, in [0, 100].
//
// The policy is count-based and applied uniformly everywhere a standing is
// computed: values at or below the minimum rank 0, values at or above the
// maximum rank 100, and everything in between ranks at
// (count of elements strictly less than target) / n * 100. Equal values all
// map to the percentile of their first occurrence.
func Standing(sorted []float64, target float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if target <= sorted[0] {
		return 0
	}
	if target >= sorted[n-1] {
		return 100
	}
	// SearchFloat64s returns the first index with sorted[i] >= target,
	// i.e. the number of elements strictly below target.
	below := sort.SearchFloat64s(sorted, target)
	return float64(below) / float64(n) * 100
}

// Quantile returns the value at percentile p of a population sorted
// ascending. Non-integral ranks are linearly interpolated between the two
// bracketing elements. Quantile(s, 50) is the textbook median.
//
// Empty input returns 0; a single element is returned for every p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median is shorthand for Quantile(sorted, 50).
func Median(sorted []float64) float64 {
	return Quantile(sorted, 50)
}
