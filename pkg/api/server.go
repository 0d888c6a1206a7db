// Package api exposes the simulation engine over HTTP: clients POST a
// scenario and get the recorded probe data back, with health and
// Prometheus metrics endpoints alongside.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// DefaultMaxDuration caps the simulated seconds a single request may ask
// for, so one client cannot pin the server.
const DefaultMaxDuration = 60.0

// Server is the HTTP API server.
type Server struct {
	log         logging.Logger
	metrics     *metrics.Registry
	startTime   time.Time
	port        int
	maxDuration float64
}

// ServerOption configures the API server.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log logging.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithMetrics sets the metrics registry.
func WithMetrics(reg *metrics.Registry) ServerOption {
	return func(s *Server) { s.metrics = reg }
}

// WithMaxDuration overrides the per-request simulated-time cap.
func WithMaxDuration(seconds float64) ServerOption {
	return func(s *Server) { s.maxDuration = seconds }
}

// NewServer creates an API server listening on port.
func NewServer(port int, opts ...ServerOption) *Server {
	s := &Server{
		log:         logging.DefaultLogger(),
		metrics:     metrics.DefaultRegistry(),
		startTime:   time.Now(),
		port:        port,
		maxDuration: DefaultMaxDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/simulate", s.handleSimulate)
	mux.HandleFunc("/validate", s.handleValidate)

	return s.loggingMiddleware(mux)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("API server starting",
		logging.Component("api"),
		logging.String("addr", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.UpdateSystemMetrics(s.startTime)
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
