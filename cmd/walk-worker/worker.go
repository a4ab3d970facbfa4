package main

import (
	"context"
	"log/slog"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/observability"
)

// walkEventHandler is implemented by service.NotificationService.
type walkEventHandler interface {
	HandleWalkEvent(ctx context.Context, e messages.WalkEvent) error
}

type worker struct {
	notifier walkEventHandler
	logger   *slog.Logger
}

func newWorker(notifier walkEventHandler, logger *slog.Logger) *worker {
	return &worker{notifier: notifier, logger: logger}
}

// handle drives notifications for one event. Location fixes are counted
// but produce no notification.
func (w *worker) handle(ctx context.Context, e messages.WalkEvent) error {
	observability.WalkEventsConsumedTotal.WithLabelValues(string(e.Type)).Inc()
	if e.Type == messages.WalkEventLocationRecorded {
		return nil
	}
	if err := w.notifier.HandleWalkEvent(ctx, e); err != nil {
		w.logger.Error("handling walk event",
			slog.String("type", string(e.Type)),
			slog.String("booking_id", e.BookingID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (w *worker) invalid(value []byte, err error) {
	observability.WalkEventsConsumedTotal.WithLabelValues("invalid").Inc()
	w.logger.Warn("invalid walk event", slog.Int("bytes", len(value)), slog.String("error", err.Error()))
}
