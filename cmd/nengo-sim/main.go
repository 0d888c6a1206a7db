// nengo-sim loads a scenario file, builds and runs the network, and writes
// the recorded probe data to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goodluckcjj/nengo/pkg/config"
	"github.com/goodluckcjj/nengo/pkg/export"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/sim"
	"github.com/goodluckcjj/nengo/pkg/stream"
)

func main() {
	scenarioPath := flag.String("scenario", "scenario.yaml", "Scenario file")
	outDir := flag.String("out", "", "Output directory (overrides the scenario's export.directory)")
	duration := flag.Float64("duration", 0, "Run length in simulated seconds (overrides the scenario)")
	dt := flag.Float64("dt", 0, "Time step in seconds (overrides the scenario)")
	streamAddr := flag.String("stream", "", "NNG pub address for live frames (overrides the scenario)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))
	logging.SetDefaultLogger(logger)

	cfg, err := config.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	if *duration > 0 {
		cfg.Simulation.Duration = *duration
	}
	if *dt > 0 {
		cfg.Simulation.Dt = *dt
	}
	if *outDir != "" {
		cfg.Export.Directory = *outDir
	}
	if *streamAddr != "" {
		cfg.Stream.Address = *streamAddr
	}

	net, err := cfg.BuildNetwork()
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}

	simulator, err := sim.NewSimulator(net,
		sim.WithDt(cfg.Simulation.Dt),
		sim.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to build simulator: %v", err)
	}
	defer simulator.Close()

	// Relay live probe frames onto the pub socket when streaming is on
	var publisher *stream.Publisher
	if cfg.Stream.Address != "" {
		publisher, err = stream.NewPublisher(cfg.Stream.Address)
		if err != nil {
			log.Fatalf("Failed to open stream publisher: %v", err)
		}
		defer publisher.Close()
		for _, p := range net.Probes() {
			relayProbe(simulator, publisher, p.ObjectName(), logger)
		}
	}

	start := time.Now()
	if err := simulator.Run(cfg.Simulation.Duration); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	logger.Info("run complete",
		logging.Network(net.Name()),
		logging.Steps(simulator.Steps()),
		logging.SimTime(simulator.Time()),
		logging.Latency(time.Since(start)))

	if cfg.Export.Directory == "" {
		return
	}
	if err := os.MkdirAll(cfg.Export.Directory, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rec, err := export.FromSimulator(simulator, net)
	if err != nil {
		log.Fatalf("Failed to snapshot recording: %v", err)
	}

	if cfg.Export.Recording {
		path := filepath.Join(cfg.Export.Directory, net.Name()+".rec")
		if err := export.Write(path, rec); err != nil {
			log.Fatalf("Failed to write recording: %v", err)
		}
		fmt.Printf("Recording written to %s\n", path)
	}
	if cfg.Export.CSV {
		for i := range rec.Probes {
			p := &rec.Probes[i]
			name := strings.ReplaceAll(p.Meta.Name, string(filepath.Separator), "_")
			path := filepath.Join(cfg.Export.Directory, name+".csv")
			if err := export.WriteCSVFile(path, p); err != nil {
				log.Fatalf("Failed to write CSV for %s: %v", p.Meta.Name, err)
			}
			fmt.Printf("CSV written to %s\n", path)
		}
	}
}

// relayProbe forwards one probe's in-process frames to the external
// publisher for the lifetime of the process.
func relayProbe(simulator *sim.Simulator, publisher *stream.Publisher, name string, logger logging.Logger) {
	sub, err := simulator.SubscribeProbe(context.Background(), name)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", name, err)
	}
	go func() {
		for frame := range sub.C() {
			if err := publisher.Publish(frame); err != nil {
				logger.Warn("failed to publish frame",
					logging.ProbeName(name),
					logging.Error(err))
				return
			}
		}
	}()
}
