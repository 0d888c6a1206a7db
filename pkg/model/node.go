package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goodluckcjj/nengo/pkg/signals"
)

// Node is a non-neural signal source: its output is a pure function of
// simulated time, evaluated once per step.
type Node struct {
	id   string
	name string

	// Output generates the node's value each step
	Output signals.Signal
}

// AddNode declares a signal source driven by the given generator.
func (n *Network) AddNode(name string, output signals.Signal) (*Node, error) {
	if output == nil {
		return nil, fmt.Errorf("node %q: output signal is required", name)
	}
	if output.Dimensions() <= 0 {
		return nil, fmt.Errorf("node %q: %w: signal has %d dimensions", name, ErrDimensionMismatch, output.Dimensions())
	}

	node := &Node{
		id:     uuid.NewString(),
		name:   name,
		Output: output,
	}
	if err := n.register(name, node); err != nil {
		return nil, err
	}
	n.nodes = append(n.nodes, node)
	return node, nil
}

// ObjectID returns the unique ID assigned at creation
func (nd *Node) ObjectID() string { return nd.id }

// ObjectName returns the node name
func (nd *Node) ObjectName() string { return nd.name }

// SizeIn is always 0: nodes are pure sources
func (nd *Node) SizeIn() int { return 0 }

// SizeOut returns the signal dimensionality
func (nd *Node) SizeOut() int { return nd.Output.Dimensions() }
