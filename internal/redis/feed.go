package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"dogwalk/internal/realtime"
)

const feedChannelPrefix = "realtime:"

// PubSubFeed is a realtime.Feed over Redis Pub/Sub. Redis preserves
// per-channel order, so each topic maps to one channel.
type PubSubFeed struct {
	client *redis.Client
	logger *slog.Logger
	buffer int
}

// NewPubSubFeed creates a new PubSubFeed.
func NewPubSubFeed(client *redis.Client, logger *slog.Logger) *PubSubFeed {
	return &PubSubFeed{client: client, logger: logger, buffer: realtime.DefaultBuffer}
}

func feedChannel(topic realtime.Topic) string {
	return feedChannelPrefix + topic.String()
}

// Publish sends the event to the topic channel.
func (f *PubSubFeed) Publish(ctx context.Context, e realtime.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode realtime event")
	}
	return errors.Wrap(f.client.Publish(ctx, feedChannel(e.Topic()), data).Err(), "publish realtime event")
}

// Subscribe opens a Pub/Sub subscription to the topic channel. The call
// returns once Redis has confirmed the subscription.
func (f *PubSubFeed) Subscribe(ctx context.Context, topic realtime.Topic) (*realtime.Subscription, error) {
	ps := f.client.Subscribe(ctx, feedChannel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, "subscribe realtime channel")
	}

	out := make(chan realtime.Event, f.buffer)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer close(out)

		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e realtime.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					f.logger.Warn("dropping undecodable realtime message",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- e:
				case <-done:
					return
				}
			}
		}
	}()

	return realtime.NewSubscription(out, func() {
		close(done)
		if err := ps.Close(); err != nil {
			f.logger.Warn("closing realtime subscription", slog.String("topic", topic.String()), slog.String("error", err.Error()))
		}
		<-exited
	}), nil
}
