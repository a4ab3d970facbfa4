package realtime

import (
	"context"
	"sync"
)

// Publisher sends change notifications.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber opens scoped notification channels.
type Subscriber interface {
	Subscribe(ctx context.Context, topic Topic) (*Subscription, error)
}

// Feed is both ends of the change feed.
type Feed interface {
	Publisher
	Subscriber
}

// Subscription delivers events of one topic in publish order on C.
// C is closed once Close returns.
type Subscription struct {
	C <-chan Event

	once    sync.Once
	closeFn func()
}

// NewSubscription wraps a channel and the function that releases it.
// closeFn must close the channel.
func NewSubscription(c <-chan Event, closeFn func()) *Subscription {
	return &Subscription{C: c, closeFn: closeFn}
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}
