package config

import (
	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/engine"
	"github.com/lox/probabilitylab/internal/simulator"
)

// DeviceConfig converts the settings into builder input
func (d DeviceSettings) DeviceConfig() (device.Config, error) {
	kind, err := device.ParseKind(d.Kind)
	if err != nil {
		return device.Config{}, err
	}
	cfg := device.Config{Kind: kind}
	switch kind {
	case device.Coin:
		cfg.CoinProbabilities = d.Probabilities
	case device.Die:
		cfg.DieProbabilities = d.Probabilities
	case device.Spinner:
		cfg.SpinnerSectors = d.Sectors
		cfg.SpinnerSkew = d.Skew
	case device.Custom:
		cfg.Custom = device.CustomSettings{
			Name:          d.Title,
			Icon:          d.Icon,
			Outcomes:      d.Outcomes,
			Probabilities: d.Probabilities,
		}
	}
	return cfg, nil
}

// Simulation validates the configuration and converts it into a simulator
// configuration
func (c *Config) Simulation() (simulator.Config, error) {
	if c.Experiment == nil {
		c.ApplyDefaults()
	}
	if err := c.Validate(); err != nil {
		return simulator.Config{}, err
	}
	e := c.Experiment
	mode, _ := simulator.ParseMode(e.Mode)
	rel, _ := engine.ParseRelationship(e.Relationship, e.Boost)
	a, _ := c.Device(DeviceA).DeviceConfig()
	b, _ := c.Device(DeviceB).DeviceConfig()

	return simulator.Config{
		Mode:         mode,
		A:            a,
		B:            b,
		Relationship: rel,
		Seed:         e.Seed,
		Randomize:    e.Randomize,
		History:      c.HistoryEnabled(),
		Convergence:  true,
	}, nil
}
