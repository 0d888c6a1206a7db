package stream

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// ErrShutdown is returned when using a closed stream component.
var ErrShutdown = errors.New("stream: shut down")

// Publisher broadcasts probe frames over an NNG pub socket so external
// tools can watch a running simulation.
type Publisher struct {
	sock   mangos.Socket
	mu     sync.Mutex
	closed bool
}

// NewPublisher creates a publisher listening on the given address
// (e.g. "tcp://127.0.0.1:5555" or "inproc://probes").
func NewPublisher(addr string) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("stream publisher: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("stream publisher listen %s: %w", addr, err)
	}
	return &Publisher{sock: sock}, nil
}

// Publish broadcasts one frame. Send errors from absent subscribers are
// not reported; pub sockets are fire-and-forget.
func (p *Publisher) Publish(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrShutdown
	}

	data, err := frame.Marshal()
	if err != nil {
		return err
	}
	if err := p.sock.Send(data); err != nil {
		return fmt.Errorf("stream publish: %w", err)
	}
	return nil
}

// Close shuts the socket down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}

// Subscriber receives probe frames from a Publisher.
type Subscriber struct {
	sock mangos.Socket
}

// NewSubscriber dials a publisher and subscribes to the given probe's
// frames; an empty probe name subscribes to all probes.
func NewSubscriber(addr, probe string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("stream subscriber: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("stream subscriber dial %s: %w", addr, err)
	}

	topic := topicPrefix
	if probe != "" {
		topic = Topic(probe)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte(topic)); err != nil {
		sock.Close()
		return nil, fmt.Errorf("stream subscribe %q: %w", topic, err)
	}
	return &Subscriber{sock: sock}, nil
}

// SetRecvDeadline bounds how long Recv blocks.
func (s *Subscriber) SetRecvDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionRecvDeadline, d)
}

// Recv blocks for the next frame.
func (s *Subscriber) Recv() (*Frame, error) {
	data, err := s.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("stream recv: %w", err)
	}
	return UnmarshalFrame(data)
}

// Close shuts the socket down.
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
