package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goodluckcjj/nengo/pkg/config"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/sim"
)

// maxScenarioBytes bounds the request body size.
const maxScenarioBytes = 1 << 20

// handleSimulate builds and runs the scenario in the request body and
// returns the recorded probe data. The body is scenario YAML; the
// include_data query parameter (default true) controls whether full rows
// are returned or just per-probe shapes.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg, ok := s.readScenario(w, r)
	if !ok {
		return
	}
	if cfg.Simulation.Duration > s.maxDuration {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("duration %gs exceeds the server limit of %gs", cfg.Simulation.Duration, s.maxDuration))
		return
	}

	includeData := true
	if v := r.URL.Query().Get("include_data"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "include_data must be a boolean")
			return
		}
		includeData = parsed
	}

	net, err := cfg.BuildNetwork()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	simulator, err := sim.NewSimulator(net,
		sim.WithDt(cfg.Simulation.Dt),
		sim.WithLogger(s.log),
		sim.WithMetrics(s.metrics))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer simulator.Close()

	s.metrics.ActiveSimulators.Inc()
	defer s.metrics.ActiveSimulators.Dec()

	start := time.Now()
	if err := simulator.RunContext(r.Context(), cfg.Simulation.Duration); err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("run failed: %v", err))
		return
	}

	resp := SimulateResponse{
		Network:  net.Name(),
		Seed:     net.Seed(),
		Dt:       simulator.Dt(),
		Duration: cfg.Simulation.Duration,
		Steps:    simulator.Steps(),
		Elapsed:  time.Since(start).String(),
	}
	for _, p := range net.Probes() {
		rows, err := simulator.Data(p)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		result := ProbeResult{
			Name:    p.ObjectName(),
			Target:  p.Target.ObjectName(),
			Attr:    string(p.Attr),
			Columns: p.Columns(),
			Rows:    len(rows),
		}
		if includeData {
			times, err := simulator.Times(p)
			if err != nil {
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			result.Times = times
			result.Data = rows
		}
		resp.Probes = append(resp.Probes, result)
	}

	s.log.Info("scenario simulated",
		logging.Network(net.Name()),
		logging.Steps(simulator.Steps()),
		logging.Latency(time.Since(start)))
	s.respondJSON(w, http.StatusOK, resp)
}

// handleValidate parses and builds the scenario without running it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxScenarioBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	cfg, err := config.Parse(body)
	if err != nil {
		s.respondJSON(w, http.StatusOK, ValidateResponse{Valid: false, Error: err.Error()})
		return
	}
	net, err := cfg.BuildNetwork()
	if err != nil {
		s.respondJSON(w, http.StatusOK, ValidateResponse{Valid: false, Error: err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:       true,
		Network:     net.Name(),
		Ensembles:   len(net.Ensembles()),
		Nodes:       len(net.Nodes()),
		Connections: len(net.Connections()),
		Probes:      len(net.Probes()),
		Neurons:     net.NeuronCount(),
	})
}

func (s *Server) readScenario(w http.ResponseWriter, r *http.Request) (*config.Config, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScenarioBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	cfg, err := config.Parse(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return cfg, true
}
