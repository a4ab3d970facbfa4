package kafka

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"dogwalk/internal/broker/messages"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Producer struct {
	w messageWriter
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func newProducerWithWriter(w messageWriter) *Producer {
	return &Producer{w: w}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

func (p *Producer) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// WalkEventPublisher writes walk events keyed by booking id, so every
// event of one booking lands on the same partition in order.
type WalkEventPublisher struct {
	p     *Producer
	topic string
}

func NewWalkEventPublisher(p *Producer, topic string) *WalkEventPublisher {
	return &WalkEventPublisher{p: p, topic: topic}
}

func (w *WalkEventPublisher) PublishWalkEvent(ctx context.Context, e messages.WalkEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode walk event")
	}
	return w.p.Publish(ctx, w.topic, []byte(e.BookingID), value)
}
