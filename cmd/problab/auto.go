package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

var errAutoRejected = errors.New("auto run rejected, simulator busy")

// AutoCmd runs trials on a timed cadence
type AutoCmd struct {
	Speed    int           `help:"Steps per second, 1 to 60 (default from the experiment file)"`
	Duration time.Duration `help:"Stop after this long; zero runs until interrupted"`
	Watch    bool          `help:"Restart the experiment when the file changes"`
	Quiet    bool          `short:"q" help:"Do not print each step"`
}

func (c *AutoCmd) Run(g *Globals) error {
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

	var sim *simulator.Simulator
	callbacks := scheduler.Callbacks{
		OnTick: func(scheduler.Progress) {
			snap := sim.Snapshot()
			logSnapshot(logger, snap)
			if !c.Quiet {
				fmt.Fprintln(stdout, formatLast(snap))
			}
		},
	}
	sim = simulator.New(simCfg, g.options(file, logger, callbacks))

	ctx := setupSignalHandler(logger)
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	if c.Watch {
		w, err := newConfigWatcher(g.Config, quartz.NewReal(), logger, func() {
			_, next, err := g.load()
			if err != nil {
				logger.Error("Reload failed, keeping current experiment", "error", err)
				return
			}
			if err := restartAuto(ctx, sim, next, speed); err != nil {
				logger.Error("Reload could not restart the auto run", "error", err)
				return
			}
			logger.Info("Experiment reloaded", "config", g.Config)
		})
		if err != nil {
			return err
		}
		go w.run(ctx)
		defer w.close()
	}

	if !sim.StartAuto(speed) {
		return errAutoRejected
	}
	logger.Info("Auto run started", "speed", scheduler.ClampSpeed(speed))

	<-ctx.Done()
	sim.Stop()
	if err := sim.Wait(context.Background()); err != nil {
		return err
	}

	snap := sim.Snapshot()
	renderSummary(stdout, snap)
	fmt.Fprintf(stdout, "%s trials\n", statistics.FormatCount(snap.Trials))
	return nil
}

// restartAuto swaps in cfg and resumes the auto run. Configure stops the
// current run, but a chunk already executing keeps the scheduler busy until it
// lands, so the restart waits for it.
func restartAuto(ctx context.Context, sim *simulator.Simulator, cfg simulator.Config, speed int) error {
	sim.Configure(cfg)
	if err := sim.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for the previous run: %w", err)
	}
	if !sim.StartAuto(speed) {
		return errAutoRejected
	}
	return nil
}

func formatLast(snap simulator.Snapshot) string {
	if snap.Mode == simulator.Two {
		return fmt.Sprintf("#%d  %s  %s", snap.Trials, snap.A.Label(snap.LastA), snap.B.Label(snap.LastB))
	}
	return fmt.Sprintf("#%d  %s", snap.Trials, snap.A.Label(snap.Last))
}
