// Package report serialises experiment results for later analysis.
package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

// Report is the exported form of one experiment
type Report struct {
	Generated    time.Time `yaml:"generated" json:"generated"`
	Mode         string    `yaml:"mode" json:"mode"`
	Seed         string    `yaml:"seed" json:"seed"`
	SeedValue    uint32    `yaml:"seed_value" json:"seed_value"`
	Trials       int       `yaml:"trials" json:"trials"`
	Relationship string    `yaml:"relationship,omitempty" json:"relationship,omitempty"`

	A     Device  `yaml:"a" json:"a"`
	B     *Device `yaml:"b,omitempty" json:"b,omitempty"`
	Joint [][]int `yaml:"joint,omitempty" json:"joint,omitempty"`

	// ChiSquare is the independence statistic of the joint table
	ChiSquare *float64 `yaml:"independence_chi_square,omitempty" json:"independence_chi_square,omitempty"`
}

// Device is the frequency table of one device. Statistics that are
// undefined before the first trial are omitted.
type Device struct {
	Name      string    `yaml:"name" json:"name"`
	Outcomes  []Outcome `yaml:"outcomes" json:"outcomes"`
	ChiSquare *float64  `yaml:"chi_square,omitempty" json:"chi_square,omitempty"`
}

type Outcome struct {
	Label       string   `yaml:"label" json:"label"`
	Probability float64  `yaml:"probability" json:"probability"`
	Count       int      `yaml:"count" json:"count"`
	Relative    *float64 `yaml:"relative,omitempty" json:"relative,omitempty"`
}

// New builds a report from a snapshot
func New(snap simulator.Snapshot, generated time.Time) Report {
	s := snap.Summary()
	r := Report{
		Generated: generated.UTC(),
		Mode:      snap.Mode.String(),
		Seed:      snap.Seed,
		SeedValue: snap.SeedValue,
		Trials:    snap.Trials,
		A:         newDevice(snap.A.Name, s.A),
	}
	if snap.Mode != simulator.Two {
		return r
	}
	b := newDevice(snap.B.Name, *s.B)
	r.B = &b
	r.Relationship = snap.Relationship.String()
	r.Joint = s.Joint.Joint
	r.ChiSquare = finite(s.Joint.ChiSquare)
	return r
}

func newDevice(name string, t statistics.Table) Device {
	d := Device{Name: name, ChiSquare: finite(t.ChiSquare)}
	for _, row := range t.Rows {
		d.Outcomes = append(d.Outcomes, Outcome{
			Label:       row.Label,
			Probability: row.Theoretical,
			Count:       row.Count,
			Relative:    finite(row.Relative),
		})
	}
	return d
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Marshal encodes the report as YAML
func (r Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile replaces filename with the encoded report
func (r Report) WriteFile(filename string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(filename, data, 0o644)
}
