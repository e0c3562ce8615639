package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/tui"
)

// LabCmd opens the interactive lab
type LabCmd struct {
	Speed int `help:"Auto speed in steps per second (default from the experiment file)"`
}

func (c *LabCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	file, simCfg, err := g.load()
	if err != nil {
		return err
	}
	speed := c.Speed
	if speed <= 0 {
		speed = file.Experiment.Speed
	}

	bridge := tui.NewBridge()
	sim := simulator.New(simCfg, g.options(file, logger, bridge.Callbacks()))
	ctx := setupSignalHandler(logger)
	err = tui.Run(tui.New(sim, bridge, logger, speed), tea.WithContext(ctx))
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if n := bridge.Dropped(); n > 0 {
		logger.Debug("UI skipped scheduler events", "count", n)
	}
	return nil
}
