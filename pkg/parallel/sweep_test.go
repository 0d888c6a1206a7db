package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/goodluckcjj/nengo/pkg/config"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		if !pool.Submit(func() { count.Add(1) }) {
			t.Fatal("Submit returned false on an open pool")
		}
	}
	pool.Wait()

	if got := count.Load(); got != 100 {
		t.Errorf("Ran %d tasks, want 100", got)
	}
	if pool.Submit(func() {}) {
		t.Error("Submit succeeded on a closed pool")
	}
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	pool, err := NewWorkerPool(2)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}

	var after atomic.Bool
	pool.Submit(func() { panic("task gone wrong") })
	pool.Submit(func() { after.Store(true) })
	pool.Wait()

	if !after.Load() {
		t.Error("Pool stopped processing after a panicking task")
	}
}

func TestWorkerPool_TooManyWorkers(t *testing.T) {
	if _, err := NewWorkerPool(MaxWorkers + 1); err == nil {
		t.Error("Expected error for excessive worker count")
	}
}

const sweepScenario = `
network:
  name: sweep
simulation:
  dt: 0.001
  duration: 0.05
nodes:
  - name: input
    signal: {kind: constant, value: [0.4]}
ensembles:
  - name: neurons
    neurons: 20
    dimensions: 1
connections:
  - {pre: input, post: neurons}
probes:
  - {target: neurons, attr: decoded, synapse: 0.01}
`

func TestSeedSweep(t *testing.T) {
	cfg, err := config.Parse([]byte(sweepScenario))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	opts := SweepOptions{
		Workers: 3,
		Logger:  logging.NewNopLogger(),
		Metrics: metrics.NewRegistry(),
	}
	seeds := []int64{1, 2, 3, 1}
	results, err := SeedSweep(cfg, seeds, opts)
	if err != nil {
		t.Fatalf("SeedSweep failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("Got %d results, want 4", len(results))
	}

	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("Seed %d failed: %v", r.Seed, r.Err)
		}
		if r.Seed != seeds[i] {
			t.Errorf("Result %d has seed %d, want %d", i, r.Seed, seeds[i])
		}
		if len(r.Recording.Probes) != 1 || len(r.Recording.Probes[0].Rows) != 50 {
			t.Fatalf("Seed %d recording shape wrong: %+v", r.Seed, r.Recording.Probes)
		}
	}

	// Same seed gives identical output, different seeds give different runs
	same := results[0].Recording.Probes[0].Rows
	repeat := results[3].Recording.Probes[0].Rows
	for i := range same {
		if same[i][0] != repeat[i][0] {
			t.Fatalf("Seed 1 runs diverge at row %d", i)
		}
	}
	other := results[1].Recording.Probes[0].Rows
	identical := true
	for i := range same {
		if same[i][0] != other[i][0] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("Different seeds produced identical recordings")
	}

	if _, err := SeedSweep(cfg, nil, opts); err == nil {
		t.Error("Expected error for empty seed list")
	}
}
