package statistics

import (
	"math"

	"github.com/lox/probabilitylab/internal/device"
)

// TwoWayTable is the contingency table of a two-event experiment. Rows are
// event A outcomes, columns event B outcomes.
type TwoWayTable struct {
	RowLabels []string
	ColLabels []string
	Joint     [][]int
	RowTotals []int
	ColTotals []int
	Trials    int

	// Conditional[a][b] is P(B=b | A=a), NaN for rows never observed
	Conditional [][]float64

	// Pearson test of independence between A and B over non-empty rows and
	// columns
	ChiSquare        float64
	DegreesOfFreedom int
}

// TwoWay builds the contingency table. The joint counts are copied.
func TwoWay(defA, defB *device.Definition, joint [][]int, countsA, countsB []int, trials int) TwoWayTable {
	nA, nB := defA.Len(), defB.Len()
	t := TwoWayTable{
		RowLabels:   append([]string(nil), defA.Labels...),
		ColLabels:   append([]string(nil), defB.Labels...),
		Joint:       make([][]int, nA),
		RowTotals:   make([]int, nA),
		ColTotals:   make([]int, nB),
		Conditional: make([][]float64, nA),
		Trials:      trials,
	}
	for a := 0; a < nA; a++ {
		t.Joint[a] = make([]int, nB)
		if a < len(joint) {
			copy(t.Joint[a], joint[a])
		}
		t.RowTotals[a] = countAt(countsA, a)
	}
	for b := 0; b < nB; b++ {
		t.ColTotals[b] = countAt(countsB, b)
	}

	for a := 0; a < nA; a++ {
		t.Conditional[a] = make([]float64, nB)
		for b := 0; b < nB; b++ {
			if t.RowTotals[a] == 0 {
				t.Conditional[a][b] = math.NaN()
				continue
			}
			t.Conditional[a][b] = float64(t.Joint[a][b]) / float64(t.RowTotals[a])
		}
	}

	t.ChiSquare, t.DegreesOfFreedom = independence(t)
	return t
}

func independence(t TwoWayTable) (float64, int) {
	if t.Trials <= 0 {
		return math.NaN(), 0
	}
	rows, cols := 0, 0
	for _, r := range t.RowTotals {
		if r > 0 {
			rows++
		}
	}
	for _, c := range t.ColTotals {
		if c > 0 {
			cols++
		}
	}

	n := float64(t.Trials)
	chi := 0.0
	for a, r := range t.RowTotals {
		for b, c := range t.ColTotals {
			expected := float64(r) * float64(c) / n
			if expected == 0 {
				continue
			}
			diff := float64(t.Joint[a][b]) - expected
			chi += diff * diff / expected
		}
	}
	return chi, max(rows-1, 0) * max(cols-1, 0)
}

// Validate checks that the joint counts agree with both marginals and the
// trial total
func (t TwoWayTable) Validate() error {
	if err := checkTotal("row totals", t.RowTotals, t.Trials); err != nil {
		return err
	}
	if err := checkTotal("column totals", t.ColTotals, t.Trials); err != nil {
		return err
	}
	for a, row := range t.Joint {
		if err := checkTotal(t.RowLabels[a], row, t.RowTotals[a]); err != nil {
			return err
		}
	}
	cols := make([]int, len(t.ColTotals))
	for _, row := range t.Joint {
		for b, n := range row {
			cols[b] += n
		}
	}
	for b, n := range cols {
		if n != t.ColTotals[b] {
			return checkTotal(t.ColLabels[b], []int{n}, t.ColTotals[b])
		}
	}
	return nil
}
