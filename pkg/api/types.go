package api

import "time"

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// SimulateResponse is the result of one scenario run.
type SimulateResponse struct {
	Network  string        `json:"network"`
	Seed     int64         `json:"seed"`
	Dt       float64       `json:"dt"`
	Duration float64       `json:"duration"`
	Steps    uint64        `json:"steps"`
	Elapsed  string        `json:"elapsed"`
	Probes   []ProbeResult `json:"probes"`
}

// ProbeResult carries one probe's recording in the response.
type ProbeResult struct {
	Name    string      `json:"name"`
	Target  string      `json:"target"`
	Attr    string      `json:"attr"`
	Columns int         `json:"columns"`
	Rows    int         `json:"rows"`
	Times   []float64   `json:"times,omitempty"`
	Data    [][]float64 `json:"data,omitempty"`
}

// ValidateResponse reports the outcome of a scenario dry run.
type ValidateResponse struct {
	Valid       bool   `json:"valid"`
	Network     string `json:"network,omitempty"`
	Ensembles   int    `json:"ensembles"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
	Probes      int    `json:"probes"`
	Neurons     int    `json:"neurons"`
	Error       string `json:"error,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
