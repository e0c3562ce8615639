// Package cdf builds cumulative distributions and draws indices from them by
// inverse transform sampling.
package cdf

import "github.com/lox/probabilitylab/internal/randutil"

// Build returns the normalized prefix sums of probabilities. When the total is
// not positive every entry is zero, which marks the distribution degenerate.
func Build(probabilities []float64) []float64 {
	return BuildInto(make([]float64, len(probabilities)), probabilities)
}

// BuildInto is Build writing into dst, which is grown when too small. It lets
// hot loops rebuild a distribution per draw without allocating.
func BuildInto(dst, probabilities []float64) []float64 {
	if cap(dst) < len(probabilities) {
		dst = make([]float64, len(probabilities))
	}
	dst = dst[:len(probabilities)]

	var total float64
	for i, p := range probabilities {
		total += p
		dst[i] = total
	}
	if total <= 0 {
		clear(dst)
		return dst
	}
	for i := range dst {
		dst[i] /= total
	}
	return dst
}

// SampleIndex draws once from rng and returns the first index whose cumulative
// threshold is strictly greater than the draw. Draws that match no threshold,
// including any draw against a degenerate distribution, select the last index.
func SampleIndex(rng randutil.Source, cdf []float64) int {
	r := rng.Float64()
	for i, threshold := range cdf {
		if r < threshold {
			return i
		}
	}
	return max(0, len(cdf)-1)
}

// Degenerate reports whether cdf is the all-zero marker produced for inputs
// that did not sum to a positive total
func Degenerate(cdf []float64) bool {
	for _, v := range cdf {
		if v != 0 {
			return false
		}
	}
	return true
}
