// Package engine advances trial state. The simulate functions are the only
// code that mutates counters, history or generator state, and they never
// fail: missing definitions or non-positive batch sizes are no-ops.
package engine

import (
	"github.com/lox/probabilitylab/internal/cdf"
	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/history"
	"github.com/lox/probabilitylab/internal/randutil"
)

// NoOutcome marks Last fields before the first trial
const NoOutcome = -1

// SingleState holds the running totals of a single-event experiment
type SingleState struct {
	Definition *device.Definition
	Counts     []int
	Trials     int
	Last       int

	// Optional sinks; nil disables recording
	History     *history.IndexHistory
	Convergence *ConvergenceLog
}

// NewSingleState returns zeroed state for def
func NewSingleState(def *device.Definition) *SingleState {
	s := &SingleState{}
	s.Reset(def)
	return s
}

// Reset installs def and clears every counter and attached sink
func (s *SingleState) Reset(def *device.Definition) {
	s.Definition = def
	s.Counts = make([]int, def.Len())
	s.Trials = 0
	s.Last = NoOutcome
	if s.History != nil {
		s.History.Clear()
	}
	if s.Convergence != nil {
		s.Convergence.Clear()
	}
}

// Relative returns each outcome's share of the trials so far, all zero
// before the first trial
func (s *SingleState) Relative() []float64 {
	rel := make([]float64, len(s.Counts))
	if s.Trials == 0 {
		return rel
	}
	for i, c := range s.Counts {
		rel[i] = float64(c) / float64(s.Trials)
	}
	return rel
}

// SimulateSingle runs n trials against s.Definition
func SimulateSingle(s *SingleState, rng randutil.Source, n int) {
	if s == nil || s.Definition == nil || n <= 0 {
		return
	}
	c := s.Definition.CDF
	if len(c) == 0 {
		return
	}
	s.Counts = ensureLen(s.Counts, len(c))

	for i := 0; i < n; i++ {
		idx := cdf.SampleIndex(rng, c)
		s.Counts[idx]++
		s.Trials++
		s.Last = idx
		if s.History != nil {
			s.History.Push(uint16(idx))
		}
	}

	if s.Convergence != nil && s.Trials > 0 {
		s.Convergence.Append(ConvergencePoint{Trials: s.Trials, Relative: s.Relative()})
	}
}

func ensureLen(counts []int, n int) []int {
	if len(counts) >= n {
		return counts
	}
	grown := make([]int, n)
	copy(grown, counts)
	return grown
}
