package stream

import (
	"context"
	"sync"
)

// PubSub fans probe frames out to in-process subscribers, one topic per
// probe name. Slow subscribers drop frames rather than stalling the
// simulation step loop.
type PubSub struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	dropped     uint64
}

// Subscription represents a subscription to one probe's frames.
type Subscription struct {
	topic     string
	channel   chan Frame
	ps        *PubSub
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPubSub creates a new PubSub instance
func NewPubSub() *PubSub {
	return &PubSub{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a new subscription to a probe's frames. The
// subscription closes when ctx is cancelled or the PubSub shuts down.
func (ps *PubSub) Subscribe(ctx context.Context, probe string) (*Subscription, error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   probe,
		channel: make(chan Frame, 256),
		ps:      ps,
		ctx:     subCtx,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[probe] == nil {
		ps.subscribers[probe] = make(map[*Subscription]bool)
	}
	ps.subscribers[probe][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends a frame to all subscribers of its probe topic.
// A snapshot copy avoids holding the lock during channel sends.
func (ps *PubSub) Publish(frame Frame) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.shutdownMu.Unlock()

	ps.mu.RLock()
	topicSubs := ps.subscribers[frame.Probe]
	if len(topicSubs) == 0 {
		ps.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- frame:
		default:
			// Channel full, drop rather than block the step loop
			ps.mu.Lock()
			ps.dropped++
			ps.mu.Unlock()
		}
	}
}

// SubscriberCount returns the number of subscribers for a probe.
func (ps *PubSub) SubscriberCount(probe string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[probe])
}

// Dropped returns the number of frames dropped by slow subscribers.
func (ps *PubSub) Dropped() uint64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.dropped
}

// Shutdown closes all subscriptions and rejects future subscribes.
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	close(ps.shutdown)
	ps.shutdownMu.Unlock()

	ps.mu.Lock()
	subs := make([]*Subscription, 0)
	for _, topicSubs := range ps.subscribers {
		for sub := range topicSubs {
			subs = append(subs, sub)
		}
	}
	ps.subscribers = make(map[string]map[*Subscription]bool)
	ps.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// C returns the subscription's frame channel.
func (s *Subscription) C() <-chan Frame {
	return s.channel
}

// Topic returns the subscribed probe name.
func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.ps.mu.Lock()
	if topicSubs := s.ps.subscribers[s.topic]; topicSubs != nil {
		delete(topicSubs, s)
		if len(topicSubs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.ps.mu.Unlock()

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.channel)
	})
}
