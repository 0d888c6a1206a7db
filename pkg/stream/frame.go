// Package stream distributes live probe samples to in-process subscribers
// and, through Publisher, to external consumers over an NNG pub socket.
package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame is a single probe sample emitted during a run.
type Frame struct {
	// Probe is the originating probe name
	Probe string `json:"probe"`
	// Step is the simulation step number that produced the sample
	Step uint64 `json:"step"`
	// Time is the simulated time in seconds
	Time float64 `json:"time"`
	// Values holds the sampled row
	Values []float64 `json:"values"`
}

// topicPrefix namespaces frames on the wire so subscribers can filter
// by probe name.
const topicPrefix = "probe/"

// Marshal encodes the frame for the wire: a topic header followed by the
// JSON body, separated by a single space.
func (f *Frame) Marshal() ([]byte, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	var b strings.Builder
	b.WriteString(topicPrefix)
	b.WriteString(f.Probe)
	b.WriteByte(' ')
	b.Write(body)
	return []byte(b.String()), nil
}

// UnmarshalFrame decodes a wire message produced by Marshal.
func UnmarshalFrame(data []byte) (*Frame, error) {
	idx := -1
	for i, c := range data {
		if c == ' ' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal frame: missing topic separator")
	}
	var f Frame
	if err := json.Unmarshal(data[idx+1:], &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	return &f, nil
}

// Topic returns the wire topic for a probe name.
func Topic(probe string) string {
	return topicPrefix + probe
}
