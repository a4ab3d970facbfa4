package realtime

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 64

var _ Feed = (*Hub)(nil)

// Hub is an in-process Feed. Publish blocks until every subscriber of the
// topic has buffered the event, unsubscribed, or ctx is done.
type Hub struct {
	mu     sync.RWMutex
	subs   map[Topic]map[*hubSub]struct{}
	buffer int
}

type hubSub struct {
	ch   chan Event
	done chan struct{}
}

// NewHub creates a Hub. A non-positive buffer uses DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[Topic]map[*hubSub]struct{}),
		buffer: buffer,
	}
}

// Publish delivers e to the current subscribers of its topic.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[e.Topic()] {
		select {
		case sub.ch <- e:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a new subscriber for topic.
func (h *Hub) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &hubSub{
		ch:   make(chan Event, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*hubSub]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	return NewSubscription(sub.ch, func() {
		// Unblock publishers before waiting for the write lock.
		close(sub.done)

		h.mu.Lock()
		delete(h.subs[topic], sub)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
		h.mu.Unlock()

		close(sub.ch)
	}), nil
}

// Subscribers returns the number of open subscriptions for topic.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
