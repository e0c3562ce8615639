package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
)

var noCallbacks scheduler.Callbacks

// HistoryCmd runs the experiment synchronously and prints recorded trials
type HistoryCmd struct {
	Trials int `help:"Trials to run (default from the experiment file)"`
	From   int `default:"0" help:"Index of the first trial to print; negative counts from the end"`
	Count  int `default:"20" help:"Number of trials to print"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	file, simCfg, err := g.load()
	if err != nil {
		return err
	}
	if !simCfg.History {
		return errors.New("history is disabled in the experiment file")
	}
	trials := c.Trials
	if trials <= 0 {
		trials = file.Experiment.Trials
	}

	sim := simulator.New(simCfg, g.options(file, logger, noCallbacks))
	if err := sim.Advance(setupSignalHandler(logger), trials); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	from := c.From
	if from < 0 {
		from = max(sim.HistoryLen()+from, 0)
	}
	snap := sim.Snapshot()
	renderHistory(stdout, snap.A, snap.B, from, sim.HistoryWindow(from, c.Count))
	return nil
}

// DescribeCmd prints the device models without running trials
type DescribeCmd struct{}

func (c *DescribeCmd) Run(g *Globals) error {
	_, simCfg, err := g.load()
	if err != nil {
		return err
	}
	renderDefinition(stdout, "A", device.Build(simCfg.A))
	if simCfg.Mode == simulator.Two {
		renderDefinition(stdout, "B", device.Build(simCfg.B))
		fmt.Fprintf(stdout, "Relationship: %s\n", simCfg.Relationship)
	}
	return nil
}
