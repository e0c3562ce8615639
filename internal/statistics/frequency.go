package statistics

import (
	"math"

	"github.com/lox/probabilitylab/internal/device"
)

// Row compares one outcome's observed frequency against its model
// probability. Relative and the fields derived from it are NaN before the
// first trial.
type Row struct {
	Label       string
	Theoretical float64
	Count       int
	Relative    float64
	Delta       float64
	StdError    float64
	CILow       float64
	CIHigh      float64
}

// Table is the frequency table of a single device
type Table struct {
	Rows   []Row
	Trials int

	// Pearson goodness-of-fit against the model, over outcomes with
	// non-zero expected count
	ChiSquare        float64
	DegreesOfFreedom int
	// TotalVariation is half the L1 distance between observed and model
	// distributions
	TotalVariation float64
}

// Frequencies builds the frequency table for def from its running counts.
// Missing counts are treated as zero.
func Frequencies(def *device.Definition, counts []int, trials int) Table {
	n := def.Len()
	t := Table{Rows: make([]Row, n), Trials: trials}
	if trials <= 0 {
		t.ChiSquare = math.NaN()
		t.TotalVariation = math.NaN()
	}

	cells := 0
	for i := 0; i < n; i++ {
		count := countAt(counts, i)
		p := probabilityAt(def, i)
		rel, se, lo, hi := proportion(count, trials)
		t.Rows[i] = Row{
			Label:       def.Label(i),
			Theoretical: p,
			Count:       count,
			Relative:    rel,
			Delta:       rel - p,
			StdError:    se,
			CILow:       lo,
			CIHigh:      hi,
		}
		if trials <= 0 {
			continue
		}
		t.TotalVariation += math.Abs(rel-p) / 2
		expected := p * float64(trials)
		if expected > 0 {
			diff := float64(count) - expected
			t.ChiSquare += diff * diff / expected
			cells++
		}
	}
	t.DegreesOfFreedom = max(cells-1, 0)
	return t
}

// Validate checks that the table's counts add up to its trial total
func (t Table) Validate() error {
	counts := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		counts[i] = r.Count
	}
	return checkTotal("frequency table", counts, t.Trials)
}

func countAt(counts []int, i int) int {
	if i < len(counts) {
		return counts[i]
	}
	return 0
}

func probabilityAt(def *device.Definition, i int) float64 {
	if i < len(def.Probabilities) {
		return def.Probabilities[i]
	}
	return 0
}
