// Package device turns device configuration into validated probability
// models. Building never fails: malformed input degrades to a uniform
// distribution for the device.
package device

import (
	"fmt"
	"strings"
)

// Kind identifies the randomness source
type Kind int

const (
	Coin Kind = iota
	Die
	Spinner
	Custom
)

var kindNames = map[Kind]string{
	Coin:    "coin",
	Die:     "die",
	Spinner: "spinner",
	Custom:  "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a device kind name, ignoring case and surrounding space
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == normalized {
			return kind, nil
		}
	}
	return Coin, fmt.Errorf("unknown device kind %q", name)
}

const (
	// MaxCustomOutcomes caps the number of labels on a custom device
	MaxCustomOutcomes = 50

	MinSpinnerSectors     = 2
	MaxSpinnerSectors     = 12
	DefaultSpinnerSectors = 8

	DefaultCustomName = "Custom Device"
)

// Probability bounds applied to coin and die vectors
const (
	coinMin = 0.01
	coinMax = 0.99
	dieMin  = 0.01
	dieMax  = 0.8
)

// Definition is the immutable probability model of one device. Rebuild it
// with Build whenever configuration changes; never mutate it in place.
type Definition struct {
	Kind          Kind
	Name          string
	Icon          string
	Labels        []string
	Probabilities []float64
	CDF           []float64

	// Spinner parameters after clamping, zero for other kinds
	Sectors int
	Skew    float64
}

// Len returns the number of outcomes
func (d *Definition) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Labels)
}

// Label returns the label for outcome i, or "" when i is out of range
func (d *Definition) Label(i int) string {
	if d == nil || i < 0 || i >= len(d.Labels) {
		return ""
	}
	return d.Labels[i]
}

// Index returns the position of label, or -1
func (d *Definition) Index(label string) int {
	if d == nil {
		return -1
	}
	for i, l := range d.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Config carries the kind-specific parameters for Build. Only the fields of
// the selected Kind are read.
type Config struct {
	Kind Kind

	CoinProbabilities []float64 // 2 entries; nil means fair
	DieProbabilities  []float64 // 6 entries; nil means fair

	SpinnerSectors int     // 0 means DefaultSpinnerSectors
	SpinnerSkew    float64 // clamped to [-1, 1]

	Custom CustomSettings
}

// CustomSettings describes a user defined device
type CustomSettings struct {
	Name          string
	Icon          string
	Outcomes      []string
	Probabilities []float64 // optional, aligned with Outcomes
}

type meta struct {
	name string
	icon string
}

var kindMeta = map[Kind]meta{
	Coin:    {name: "Coin", icon: "🪙"},
	Die:     {name: "Die", icon: "🎲"},
	Spinner: {name: "Spinner", icon: "⭕"},
}
