package simulator

import (
	"slices"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/engine"
	"github.com/lox/probabilitylab/internal/statistics"
)

// Snapshot is a copy of the running totals. Definitions are shared since
// they are immutable; every counter slice is copied.
type Snapshot struct {
	Mode Mode
	Seed string
	// SeedValue is the generator's initial 32-bit state
	SeedValue uint32
	Trials    int

	A *device.Definition
	B *device.Definition

	// Single mode
	Counts      []int
	Last        int
	Convergence []engine.ConvergencePoint

	// Two-event mode
	Relationship engine.Relationship
	CountsA      []int
	CountsB      []int
	Joint        [][]int
	LastA        int
	LastB        int

	HistoryLen int
}

// Snapshot copies the current state
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:      s.config.Mode,
		Seed:      s.seedLabel(),
		SeedValue: s.seedValue,
		Last:      engine.NoOutcome,
		LastA:     engine.NoOutcome,
		LastB:     engine.NoOutcome,
	}
	if st := s.two; st != nil {
		snap.Trials = st.Trials
		snap.A, snap.B = st.A, st.B
		snap.Relationship = st.Relationship
		snap.CountsA = slices.Clone(st.CountsA)
		snap.CountsB = slices.Clone(st.CountsB)
		snap.Joint = make([][]int, len(st.Joint))
		for i, row := range st.Joint {
			snap.Joint[i] = slices.Clone(row)
		}
		snap.LastA, snap.LastB = st.LastA, st.LastB
		if st.History != nil {
			snap.HistoryLen = st.History.Len()
		}
		return snap
	}

	st := s.single
	snap.Trials = st.Trials
	snap.A = st.Definition
	snap.Counts = slices.Clone(st.Counts)
	snap.Last = st.Last
	if st.Convergence != nil {
		points := st.Convergence.Points()
		snap.Convergence = make([]engine.ConvergencePoint, len(points))
		for i, p := range points {
			snap.Convergence[i] = engine.ConvergencePoint{Trials: p.Trials, Relative: slices.Clone(p.Relative)}
		}
	}
	if st.History != nil {
		snap.HistoryLen = st.History.Len()
	}
	return snap
}

// Summary is the statistical view of a snapshot. B and Joint are set in
// two-event mode only.
type Summary struct {
	Mode   Mode
	Trials int
	A      statistics.Table
	B      *statistics.Table
	Joint  *statistics.TwoWayTable
}

// Summary computes frequency tables for the snapshot
func (snap Snapshot) Summary() Summary {
	if snap.Mode != Two {
		return Summary{
			Mode:   snap.Mode,
			Trials: snap.Trials,
			A:      statistics.Frequencies(snap.A, snap.Counts, snap.Trials),
		}
	}
	b := statistics.Frequencies(snap.B, snap.CountsB, snap.Trials)
	joint := statistics.TwoWay(snap.A, snap.B, snap.Joint, snap.CountsA, snap.CountsB, snap.Trials)
	return Summary{
		Mode:   Two,
		Trials: snap.Trials,
		A:      statistics.Frequencies(snap.A, snap.CountsA, snap.Trials),
		B:      &b,
		Joint:  &joint,
	}
}

// Summary is shorthand for Snapshot().Summary()
func (s *Simulator) Summary() Summary {
	return s.Snapshot().Summary()
}
