package service

import (
	"context"
	"log/slog"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/domain"
	"dogwalk/internal/realtime"
)

// EventSink records walk lifecycle events.
type EventSink interface {
	PublishWalkEvent(ctx context.Context, e messages.WalkEvent) error
}

// InlineEventSink handles events in-process. Used when no broker is configured.
type InlineEventSink struct {
	notifier *NotificationService
}

// NewInlineEventSink creates a sink that notifies directly.
func NewInlineEventSink(notifier *NotificationService) *InlineEventSink {
	return &InlineEventSink{notifier: notifier}
}

// PublishWalkEvent hands the event to the notification service.
func (s *InlineEventSink) PublishWalkEvent(ctx context.Context, e messages.WalkEvent) error {
	return s.notifier.HandleWalkEvent(ctx, e)
}

// broadcaster fans committed changes out to live subscribers and the event
// log. The database is the source of truth, so failures here are logged and
// never fail the operation.
type broadcaster struct {
	feed   realtime.Publisher
	events EventSink
	logger *slog.Logger
}

func (b broadcaster) bookingUpdated(ctx context.Context, booking *domain.Booking) {
	if b.feed == nil {
		return
	}
	e, err := realtime.NewBookingUpdate(booking)
	if err == nil {
		err = b.feed.Publish(ctx, e)
	}
	if err != nil {
		b.logger.Warn("publish booking update",
			slog.String("booking_id", booking.ID),
			slog.String("status", string(booking.Status)),
			slog.String("error", err.Error()))
	}
}

func (b broadcaster) locationInserted(ctx context.Context, fix *domain.LocationFix) {
	if b.feed == nil {
		return
	}
	e, err := realtime.NewLocationInsert(fix)
	if err == nil {
		err = b.feed.Publish(ctx, e)
	}
	if err != nil {
		b.logger.Warn("publish location insert",
			slog.String("booking_id", fix.BookingID),
			slog.String("error", err.Error()))
	}
}

func (b broadcaster) walkEvent(ctx context.Context, e messages.WalkEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.PublishWalkEvent(ctx, e); err != nil {
		b.logger.Warn("publish walk event",
			slog.String("type", string(e.Type)),
			slog.String("booking_id", e.BookingID),
			slog.String("error", err.Error()))
	}
}
