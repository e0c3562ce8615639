package engine

import (
	"github.com/lox/probabilitylab/internal/cdf"
	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/history"
	"github.com/lox/probabilitylab/internal/randutil"
)

// TwoState holds the running totals of a two-event experiment. Joint is
// indexed [a][b].
type TwoState struct {
	A, B         *device.Definition
	Relationship Relationship

	CountsA []int
	CountsB []int
	Joint   [][]int
	Trials  int
	LastA   int
	LastB   int

	// Optional sink; nil disables recording
	History *history.PackedPairHistory
}

// NewTwoState returns zeroed state for the pair of definitions
func NewTwoState(a, b *device.Definition, rel Relationship) *TwoState {
	s := &TwoState{}
	s.Reset(a, b, rel)
	return s
}

// Reset installs new definitions and relationship and clears every counter
// and the attached history
func (s *TwoState) Reset(a, b *device.Definition, rel Relationship) {
	if rel == nil {
		rel = Independent{}
	}
	s.A, s.B, s.Relationship = a, b, rel
	s.CountsA = make([]int, a.Len())
	s.CountsB = make([]int, b.Len())
	s.Joint = make([][]int, a.Len())
	for i := range s.Joint {
		s.Joint[i] = make([]int, b.Len())
	}
	s.Trials = 0
	s.LastA, s.LastB = NoOutcome, NoOutcome
	if s.History != nil {
		s.History.Clear()
	}
}

// pairSampler draws B given A. Dependent sampling rebuilds B's distribution
// every trial, so the scratch buffers are reused across the batch.
type pairSampler struct {
	a, b    *device.Definition
	rel     Relationship
	weights []float64
	cdf     []float64
}

func (p *pairSampler) sampleB(rng randutil.Source, a int) int {
	switch rel := p.rel.(type) {
	case Copy:
		if a < len(p.b.CDF) {
			return a
		}
	case Complement:
		if p.a.Kind == device.Coin && len(p.b.CDF) == 2 {
			return 1 - a
		}
	case Dependent:
		if len(p.b.Probabilities) > 0 {
			return p.sampleDependent(rng, a, rel.factor())
		}
	case Independent:
	}
	return cdf.SampleIndex(rng, p.b.CDF)
}

func (p *pairSampler) sampleDependent(rng randutil.Source, a int, boost float64) int {
	nA, nB := len(p.a.CDF), len(p.b.Probabilities)
	aHigh := a >= ceilHalf(nA)
	splitB := ceilHalf(nB)

	p.weights = p.weights[:0]
	for i, prob := range p.b.Probabilities {
		if (i >= splitB) == aHigh {
			prob *= boost
		}
		p.weights = append(p.weights, prob)
	}
	p.cdf = cdf.BuildInto(p.cdf, p.weights)
	return cdf.SampleIndex(rng, p.cdf)
}

func ceilHalf(n int) int {
	return (n + 1) / 2
}

// SimulateTwo runs n paired trials. A is always drawn first so the generator
// is consumed in the same order regardless of relationship.
func SimulateTwo(s *TwoState, rng randutil.Source, n int) {
	if s == nil || s.A == nil || s.B == nil || n <= 0 {
		return
	}
	if len(s.A.CDF) == 0 || len(s.B.CDF) == 0 {
		return
	}
	rel := s.Relationship
	if rel == nil {
		rel = Independent{}
	}
	s.ensureShape()

	p := &pairSampler{a: s.A, b: s.B, rel: rel}
	for i := 0; i < n; i++ {
		a := cdf.SampleIndex(rng, s.A.CDF)
		b := p.sampleB(rng, a)

		s.CountsA[a]++
		s.CountsB[b]++
		s.Joint[a][b]++
		s.Trials++
		s.LastA, s.LastB = a, b
		if s.History != nil {
			s.History.PushPair(uint16(a), uint16(b))
		}
	}
}

func (s *TwoState) ensureShape() {
	nA, nB := len(s.A.CDF), len(s.B.CDF)
	s.CountsA = ensureLen(s.CountsA, nA)
	s.CountsB = ensureLen(s.CountsB, nB)
	if len(s.Joint) < nA {
		grown := make([][]int, nA)
		copy(grown, s.Joint)
		s.Joint = grown
	}
	for i := range s.Joint {
		s.Joint[i] = ensureLen(s.Joint[i], nB)
	}
}
