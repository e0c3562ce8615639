package randutil

import (
	"hash/fnv"
	"strings"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15

	// DefaultSeed is used for every empty or whitespace-only seed string so
	// unseeded experiments still share one reproducible sequence
	DefaultSeed uint32 = 0x9e3779b9

	mulberryIncrement = 0x6d2b79f5
)

// Source yields uniform draws in [0,1)
type Source interface {
	Float64() float64
}

// Func adapts a plain function to Source
type Func func() float64

func (f Func) Float64() float64 { return f() }

// Mulberry32 is a 32-bit counter based generator. Its whole state is a single
// uint32 which advances by a fixed increment on every draw.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 returns a generator starting from seed. Identical seeds
// produce identical sequences.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the state and returns the next 32-bit output
func (m *Mulberry32) Uint32() uint32 {
	m.state += mulberryIncrement
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns the next draw in [0,1)
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / (1 << 32)
}

// State returns the current generator state
func (m *Mulberry32) State() uint32 {
	return m.state
}

// HashString maps text to a 32-bit seed using FNV-1a. The empty string hashes
// to the FNV offset basis.
func HashString(text string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return h.Sum32()
}

// FromSeed returns a generator for a user supplied seed string. Surrounding
// whitespace is ignored and every blank seed resolves to DefaultSeed.
func FromSeed(text string) *Mulberry32 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewMulberry32(DefaultSeed)
	}
	return NewMulberry32(HashString(trimmed))
}

// FromEntropy returns a generator seeded from the wall clock. Use it when the
// caller explicitly asks for a non-reproducible sequence.
func FromEntropy() *Mulberry32 {
	return NewMulberry32(uint32(mix(uint64(time.Now().UnixNano())+goldenRatio64) >> 32))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
