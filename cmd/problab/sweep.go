package main

import (
	"fmt"
	"time"

	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

// SweepCmd repeats the experiment across seeds
type SweepCmd struct {
	Seeds  []string `arg:"" optional:"" help:"Seeds to run"`
	Count  int      `short:"n" default:"8" help:"Number of generated seeds when none are given"`
	Trials int      `help:"Trials per seed (default from the experiment file)"`
}

func (c *SweepCmd) Run(g *Globals) error {
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
	seeds := c.Seeds
	if len(seeds) == 0 {
		seeds = generatedSeeds(simCfg.Seed, c.Count)
	}

	ctx := setupSignalHandler(logger)
	start := time.Now()
	snaps, err := simulator.Sweep(ctx, simCfg, seeds, trials, g.options(file, logger.WithPrefix("sweep"), noCallbacks))
	if err != nil {
		return err
	}

	renderSweep(stdout, snaps, simulator.OutcomeMoments(snaps))
	fmt.Fprintf(stdout, "%d seeds x %s trials in %s\n",
		len(snaps), statistics.FormatCount(trials), time.Since(start).Round(time.Millisecond))
	return nil
}

// generatedSeeds derives n seed texts from base
func generatedSeeds(base string, n int) []string {
	if base == "" {
		base = "seed"
	}
	seeds := make([]string, max(n, 1))
	for i := range seeds {
		seeds[i] = fmt.Sprintf("%s-%d", base, i+1)
	}
	return seeds
}
