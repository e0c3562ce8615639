package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/probabilitylab/internal/report"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

// RunCmd runs a bounded number of trials through the scheduler
type RunCmd struct {
	Trials   int    `arg:"" optional:"" help:"Number of trials (default from the experiment file)"`
	Progress bool   `help:"Log progress after every chunk"`
	Out      string `type:"path" help:"Write a YAML report to this file"`
}

func (c *RunCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	file, simCfg, err := g.load()
	if err != nil {
		return err
	}
	trials := c.Trials
	if trials <= 0 {
		trials = file.Experiment.Trials
	}

	var callbacks scheduler.Callbacks
	if c.Progress {
		callbacks.OnTick = func(p scheduler.Progress) {
			logger.Info("Progress",
				"completed", statistics.FormatCount(p.Completed),
				"total", statistics.FormatCount(p.Total))
		}
	}
	sim := simulator.New(simCfg, g.options(file, logger, callbacks))

	ctx := setupSignalHandler(logger)
	start := time.Now()
	if err := runTrials(ctx, sim, trials); err != nil {
		return err
	}
	elapsed := time.Since(start)

	snap := sim.Snapshot()
	renderSummary(stdout, snap)
	fmt.Fprintf(stdout, "%s trials in %s (seed %s)\n",
		statistics.FormatCount(snap.Trials), elapsed.Round(time.Millisecond), snap.Seed)

	if c.Out != "" {
		if err := report.New(snap, time.Now()).WriteFile(c.Out); err != nil {
			return err
		}
		logger.Info("Report written", "path", c.Out)
	}
	return nil
}

// runTrials schedules total trials and blocks until they finish or ctx is
// cancelled, in which case the run is stopped after the in-flight chunk
func runTrials(ctx context.Context, sim *simulator.Simulator, total int) error {
	if !sim.Run(total) {
		return errors.New("run rejected: no trials requested or a run is already active")
	}
	stop := context.AfterFunc(ctx, sim.Stop)
	defer stop()
	return sim.Wait(context.Background())
}

func logSnapshot(logger *log.Logger, snap simulator.Snapshot) {
	switch snap.Mode {
	case simulator.Two:
		logger.Debug("Trial", "n", snap.Trials, "a", snap.A.Label(snap.LastA), "b", snap.B.Label(snap.LastB))
	default:
		logger.Debug("Trial", "n", snap.Trials, "outcome", snap.A.Label(snap.Last))
	}
}
