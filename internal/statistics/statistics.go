package statistics

import (
	"fmt"
	"math"
	"sort"
)

// z95 is the two-sided 95% normal quantile
const z95 = 1.96

// Moments accumulates running sums for a stream of observations, such as the
// relative frequency of one outcome across a sweep of seeds
type Moments struct {
	N          int
	Sum        float64
	SumSquares float64
	Values     []float64
}

// Add incorporates a new observation
func (m *Moments) Add(v float64) {
	m.N++
	m.Sum += v
	m.SumSquares += v * v
	m.Values = append(m.Values, v)
}

// Mean returns the arithmetic mean of all observations
func (m *Moments) Mean() float64 {
	if m.N == 0 {
		return 0
	}
	return m.Sum / float64(m.N)
}

// Variance returns the sample variance
func (m *Moments) Variance() float64 {
	if m.N < 2 {
		return 0
	}
	mean := m.Mean()
	v := (m.SumSquares - float64(m.N)*mean*mean) / float64(m.N-1)
	// Cancellation can push identical observations slightly negative
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation
func (m *Moments) StdDev() float64 {
	return math.Sqrt(m.Variance())
}

// StdError returns the standard error of the mean
func (m *Moments) StdError() float64 {
	if m.N == 0 {
		return 0
	}
	return m.StdDev() / math.Sqrt(float64(m.N))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (m *Moments) ConfidenceInterval95() (float64, float64) {
	mean := m.Mean()
	margin := z95 * m.StdError()
	return mean - margin, mean + margin
}

// Median returns the median observation
func (m *Moments) Median() float64 {
	return m.Percentile(0.5)
}

// Percentile returns the interpolated value at p (0.0 to 1.0)
func (m *Moments) Percentile(p float64) float64 {
	if len(m.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(m.Values))
	copy(sorted, m.Values)
	sort.Float64s(sorted)

	p = math.Min(math.Max(p, 0), 1)
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// proportion returns the observed share k/n with its binomial standard error
// and 95% interval clipped to [0,1]. All values are NaN when n is zero.
func proportion(k, n int) (p, se, lo, hi float64) {
	if n <= 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}
	p = float64(k) / float64(n)
	se = math.Sqrt(p * (1 - p) / float64(n))
	lo = math.Max(0, p-z95*se)
	hi = math.Min(1, p+z95*se)
	return p, se, lo, hi
}

// checkTotal reports counts that do not add up to trials
func checkTotal(name string, counts []int, trials int) error {
	total := 0
	for _, c := range counts {
		if c < 0 {
			return fmt.Errorf("%s: negative count %d", name, c)
		}
		total += c
	}
	if total != trials {
		return fmt.Errorf("%s: counts total (%d) does not match trials (%d)", name, total, trials)
	}
	return nil
}
