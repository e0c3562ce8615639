package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/engine"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
)

// Validate reports every problem in the configuration as one joined error
func (c *Config) Validate() error {
	var errs []error
	e := c.Experiment
	if e == nil {
		e = Default().Experiment
	}

	mode, err := simulator.ParseMode(e.Mode)
	if err != nil {
		errs = append(errs, err)
	}
	rel, err := engine.ParseRelationship(e.Relationship, e.Boost)
	if err != nil {
		errs = append(errs, err)
	}
	if e.Trials < 0 {
		errs = append(errs, fmt.Errorf("trials must not be negative: %d", e.Trials))
	}
	if e.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk_size must not be negative: %d", e.ChunkSize))
	}
	if e.Speed < 0 || e.Speed > scheduler.MaxSpeed {
		errs = append(errs, fmt.Errorf("speed must be between %d and %d: %d", scheduler.MinSpeed, scheduler.MaxSpeed, e.Speed))
	}
	if e.AutoBatch < 0 {
		errs = append(errs, fmt.Errorf("auto_batch must not be negative: %d", e.AutoBatch))
	}
	if e.Boost < 0 || math.IsNaN(e.Boost) {
		errs = append(errs, fmt.Errorf("boost must be positive: %v", e.Boost))
	}

	seen := make(map[string]bool)
	for _, d := range c.Devices {
		if d.Name != DeviceA && d.Name != DeviceB {
			errs = append(errs, fmt.Errorf("%w %q: expected %q or %q", ErrUnknownDevice, d.Name, DeviceA, DeviceB))
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("%w %q", ErrDuplicateDevice, d.Name))
		}
		seen[d.Name] = true
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", d.Name, err))
		}
	}

	if len(errs) == 0 && mode == simulator.Two {
		if err := c.validatePair(rel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks one device's kind and parameters
func (d DeviceSettings) Validate() error {
	var errs []error
	kind, err := device.ParseKind(d.Kind)
	if err != nil {
		return err
	}
	for i, p := range d.Probabilities {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, fmt.Errorf("probabilities[%d] must be a non-negative number: %v", i, p))
		}
	}

	switch kind {
	case device.Coin:
		if n := len(d.Probabilities); n != 0 && n != 2 {
			errs = append(errs, fmt.Errorf("coin needs 2 probabilities, got %d", n))
		}
	case device.Die:
		if n := len(d.Probabilities); n != 0 && n != 6 {
			errs = append(errs, fmt.Errorf("die needs 6 probabilities, got %d", n))
		}
	case device.Spinner:
		if d.Sectors != 0 && (d.Sectors < device.MinSpinnerSectors || d.Sectors > device.MaxSpinnerSectors) {
			errs = append(errs, fmt.Errorf("sectors must be between %d and %d: %d",
				device.MinSpinnerSectors, device.MaxSpinnerSectors, d.Sectors))
		}
		if math.IsNaN(d.Skew) || math.IsInf(d.Skew, 0) {
			errs = append(errs, fmt.Errorf("skew must be finite: %v", d.Skew))
		}
	case device.Custom:
		if len(d.Outcomes) > device.MaxCustomOutcomes {
			errs = append(errs, fmt.Errorf("at most %d outcomes allowed, got %d", device.MaxCustomOutcomes, len(d.Outcomes)))
		}
		if len(d.Probabilities) != 0 && len(d.Probabilities) != len(d.Outcomes) {
			errs = append(errs, fmt.Errorf("%d probabilities for %d outcomes", len(d.Probabilities), len(d.Outcomes)))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validatePair(rel engine.Relationship) error {
	a, err := c.Device(DeviceA).DeviceConfig()
	if err != nil {
		return err
	}
	b, err := c.Device(DeviceB).DeviceConfig()
	if err != nil {
		return err
	}
	defA, defB := device.Build(a), device.Build(b)

	switch rel.(type) {
	case engine.Copy:
		if defA.Len() != defB.Len() {
			return fmt.Errorf("relationship copy needs devices with the same outcomes, got %d and %d", defA.Len(), defB.Len())
		}
	case engine.Complement:
		if defA.Kind != device.Coin || defB.Len() != 2 {
			return fmt.Errorf("relationship complement needs coin devices, got %s and %s", defA.Kind, defB.Kind)
		}
	}
	return nil
}
