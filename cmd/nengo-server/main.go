// nengo-server serves the simulation engine over HTTP with graceful
// shutdown: POST scenarios to /simulate, check /health, scrape /metrics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goodluckcjj/nengo/pkg/api"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
	"github.com/goodluckcjj/nengo/pkg/server"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	maxDuration := flag.Float64("max-duration", api.DefaultMaxDuration, "Longest simulated run a request may ask for, in seconds")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))
	logging.SetDefaultLogger(logger)

	apiServer := api.NewServer(*port,
		api.WithLogger(logger),
		api.WithMetrics(metrics.DefaultRegistry()),
		api.WithMaxDuration(*maxDuration))

	addr := fmt.Sprintf(":%d", *port)
	gs := server.NewGracefulServer(addr, apiServer.Handler(), logger)
	if err := gs.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
