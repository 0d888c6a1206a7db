package parallel

import (
	"fmt"

	"github.com/goodluckcjj/nengo/pkg/config"
	"github.com/goodluckcjj/nengo/pkg/export"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
	"github.com/goodluckcjj/nengo/pkg/sim"
)

// SweepResult is the outcome of one seed's run.
type SweepResult struct {
	Seed      int64
	Recording *export.Recording
	Err       error
}

// SweepOptions configures a seed sweep.
type SweepOptions struct {
	Workers int
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// SeedSweep runs the same scenario once per seed, in parallel, and returns
// one recording per seed in input order. Each run gets its own simulator,
// so runs do not share state and per-seed determinism is preserved.
func SeedSweep(cfg *config.Config, seeds []int64, opts SweepOptions) ([]SweepResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("sweep needs at least one seed")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultRegistry()
	}

	pool, err := NewWorkerPool(opts.Workers)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(seeds))
	for i, seed := range seeds {
		i, seed := i, seed
		pool.Submit(func() {
			results[i] = runOnce(cfg, seed, opts)
		})
	}
	pool.Wait()

	return results, nil
}

func runOnce(cfg *config.Config, seed int64, opts SweepOptions) SweepResult {
	run := *cfg
	run.Network.Seed = seed

	net, err := run.BuildNetwork()
	if err != nil {
		return SweepResult{Seed: seed, Err: err}
	}

	simulator, err := sim.NewSimulator(net,
		sim.WithDt(run.Simulation.Dt),
		sim.WithLogger(opts.Logger),
		sim.WithMetrics(opts.Metrics))
	if err != nil {
		return SweepResult{Seed: seed, Err: err}
	}
	defer simulator.Close()

	if err := simulator.Run(run.Simulation.Duration); err != nil {
		return SweepResult{Seed: seed, Err: err}
	}

	rec, err := export.FromSimulator(simulator, net)
	if err != nil {
		return SweepResult{Seed: seed, Err: err}
	}
	opts.Logger.Debug("sweep run complete",
		logging.Network(net.Name()),
		logging.Seed(seed),
		logging.Steps(simulator.Steps()))
	return SweepResult{Seed: seed, Recording: rec}
}
