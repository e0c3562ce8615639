package simulator

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lox/probabilitylab/internal/statistics"
)

// maxSweepWorkers bounds sweep parallelism regardless of core count
const maxSweepWorkers = 8

// Sweep runs one independent experiment per seed in parallel and returns
// their snapshots in seed order. History is not recorded.
func Sweep(ctx context.Context, cfg Config, seeds []string, trials int, opts Options) ([]Snapshot, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	cfg.History = false
	cfg.Convergence = false
	cfg.Randomize = false

	workers := min(runtime.NumCPU(), maxSweepWorkers, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]Snapshot, len(seeds))
	for i, seed := range seeds {
		g.Go(func() error {
			runCfg := cfg
			runCfg.Seed = seed
			sim := New(runCfg, opts)
			if err := sim.Advance(ctx, trials); err != nil {
				return fmt.Errorf("seed %q: %w", seed, err)
			}
			results[i] = sim.Snapshot()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// OutcomeMoments aggregates the relative frequency of every event A outcome
// across snapshots of the same experiment
func OutcomeMoments(snaps []Snapshot) []statistics.Moments {
	if len(snaps) == 0 {
		return nil
	}
	moments := make([]statistics.Moments, snaps[0].A.Len())
	for _, snap := range snaps {
		if snap.Trials == 0 {
			continue
		}
		counts := snap.Counts
		if snap.Mode == Two {
			counts = snap.CountsA
		}
		for i := range moments {
			c := 0
			if i < len(counts) {
				c = counts[i]
			}
			moments[i].Add(float64(c) / float64(snap.Trials))
		}
	}
	return moments
}
