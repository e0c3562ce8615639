package device

import "math"

func uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// normalize scales raw to sum to one. Negative and non-finite entries count
// as zero; a vector of the wrong length or with no positive mass yields the
// uniform vector.
func normalize(raw []float64, n int) []float64 {
	if len(raw) != n {
		return uniform(n)
	}
	out := make([]float64, n)
	var total float64
	for i, v := range raw {
		if v > 0 && !math.IsInf(v, 1) {
			out[i] = v
			total += v
		}
	}
	if total <= 0 {
		return uniform(n)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// normalizeStrict accepts raw only when it has n finite, non-negative entries
// with a positive sum. It returns nil otherwise.
func normalizeStrict(raw []float64, n int) []float64 {
	if raw == nil || len(raw) != n {
		return nil
	}
	var total float64
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil
		}
		total += v
	}
	if total <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i, v := range raw {
		out[i] = v / total
	}
	return out
}

// normalizeClamped normalizes raw and forces every entry into [lo, hi].
//
// It is one corrective pass: clamp, hand any shortfall below 1 to the entries
// still under hi in proportion to their weight, renormalize, clamp again.
// When several entries sit on a bound at once the result can miss 1 by at
// most (clamped entries × lo).
func normalizeClamped(raw []float64, n int, lo, hi float64) []float64 {
	p := normalize(raw, n)
	clampAll(p, lo, hi)

	if total := sum(p); total < 1 {
		redistribute(p, 1-total, hi)
	}

	if total := sum(p); total > 0 {
		for i := range p {
			p[i] /= total
		}
	}
	clampAll(p, lo, hi)
	return p
}

func clampAll(p []float64, lo, hi float64) {
	for i, v := range p {
		p[i] = math.Min(math.Max(v, lo), hi)
	}
}

func redistribute(p []float64, shortfall, hi float64) {
	var weight float64
	open := 0
	for _, v := range p {
		if v < hi {
			weight += v
			open++
		}
	}
	if open == 0 {
		return
	}
	for i, v := range p {
		if v >= hi {
			continue
		}
		share := shortfall / float64(open)
		if weight > 0 {
			share = shortfall * v / weight
		}
		p[i] = math.Min(v+share, hi)
	}
}
