// Package config loads experiment files. HCL is the default format; files
// ending in .yaml or .yml are read as YAML. Unlike the engine, which
// substitutes defaults for anything malformed, this layer reports invalid
// names and values as errors.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Device names. Single mode reads DeviceA only.
const (
	DeviceA = "a"
	DeviceB = "b"
)

const (
	DefaultMode         = "single"
	DefaultKind         = "coin"
	DefaultTrials       = 1000
	DefaultRelationship = "independent"
	DefaultBoost        = 3.5
	DefaultChunkSize    = 50_000
	DefaultSpeed        = 60
	DefaultAutoBatch    = 1
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	ErrDuplicateDevice = errors.New("duplicate device")
)

// Config represents a complete experiment file
type Config struct {
	Experiment *ExperimentSettings `hcl:"experiment,block" yaml:"experiment"`
	Devices    []DeviceSettings    `hcl:"device,block" yaml:"devices"`
}

// ExperimentSettings contains run-level configuration
type ExperimentSettings struct {
	Mode         string  `hcl:"mode,optional" yaml:"mode"`
	Seed         string  `hcl:"seed,optional" yaml:"seed"`
	Randomize    bool    `hcl:"randomize,optional" yaml:"randomize"`
	Trials       int     `hcl:"trials,optional" yaml:"trials"`
	Relationship string  `hcl:"relationship,optional" yaml:"relationship"`
	Boost        float64 `hcl:"boost,optional" yaml:"boost"`
	ChunkSize    int     `hcl:"chunk_size,optional" yaml:"chunk_size"`
	Speed        int     `hcl:"speed,optional" yaml:"speed"`
	AutoBatch    int     `hcl:"auto_batch,optional" yaml:"auto_batch"`
	History      *bool   `hcl:"history,optional" yaml:"history"`
}

// DeviceSettings defines one randomness source
type DeviceSettings struct {
	Name          string    `hcl:"name,label" yaml:"name"`
	Kind          string    `hcl:"kind,optional" yaml:"kind"`
	Probabilities []float64 `hcl:"probabilities,optional" yaml:"probabilities"`
	Sectors       int       `hcl:"sectors,optional" yaml:"sectors"`
	Skew          float64   `hcl:"skew,optional" yaml:"skew"`
	Outcomes      []string  `hcl:"outcomes,optional" yaml:"outcomes"`
	Title         string    `hcl:"title,optional" yaml:"title"`
	Icon          string    `hcl:"icon,optional" yaml:"icon"`
}

// Default returns a fair coin, single mode, 1000 trials
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(filename, src)
}

// Parse decodes src, choosing the format from filename's extension, and
// applies defaults. It does not validate.
func Parse(filename string, src []byte) (*Config, error) {
	var config Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(src))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(src, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}
		diags = gohcl.DecodeBody(file.Body, nil, &config)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
	}
	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills missing values in place
func (c *Config) ApplyDefaults() {
	if c.Experiment == nil {
		c.Experiment = &ExperimentSettings{}
	}
	e := c.Experiment
	if e.Mode == "" {
		e.Mode = DefaultMode
	}
	if e.Trials == 0 {
		e.Trials = DefaultTrials
	}
	if e.Relationship == "" {
		e.Relationship = DefaultRelationship
	}
	if e.Boost == 0 {
		e.Boost = DefaultBoost
	}
	if e.ChunkSize == 0 {
		e.ChunkSize = DefaultChunkSize
	}
	if e.Speed == 0 {
		e.Speed = DefaultSpeed
	}
	if e.AutoBatch == 0 {
		e.AutoBatch = DefaultAutoBatch
	}
	if e.History == nil {
		enabled := true
		e.History = &enabled
	}

	for i := range c.Devices {
		if c.Devices[i].Kind == "" {
			c.Devices[i].Kind = DefaultKind
		}
	}
}

// Device returns the settings named name, or a default coin when the file
// does not define it
func (c *Config) Device(name string) DeviceSettings {
	for _, d := range c.Devices {
		if d.Name == name {
			return d
		}
	}
	return DeviceSettings{Name: name, Kind: DefaultKind}
}

// HistoryEnabled reports whether trials are recorded
func (c *Config) HistoryEnabled() bool {
	return c.Experiment == nil || c.Experiment.History == nil || *c.Experiment.History
}
