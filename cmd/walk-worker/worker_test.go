package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/logging"
)

type recordingNotifier struct {
	events []messages.WalkEvent
	err    error
}

func (n *recordingNotifier) HandleWalkEvent(ctx context.Context, e messages.WalkEvent) error {
	n.events = append(n.events, e)
	return n.err
}

func TestWorker_NotifiesLifecycleEvents(t *testing.T) {
	n := &recordingNotifier{}
	w := newWorker(n, logging.Discard())

	require.NoError(t, w.handle(context.Background(), messages.WalkEvent{Type: messages.WalkEventWalkCompleted, BookingID: "b1"}))
	require.NoError(t, w.handle(context.Background(), messages.WalkEvent{Type: messages.WalkEventLocationRecorded, BookingID: "b1"}))

	require.Len(t, n.events, 1)
	require.Equal(t, messages.WalkEventWalkCompleted, n.events[0].Type)
}

func TestWorker_PropagatesNotifierErrors(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	w := newWorker(n, logging.Discard())

	err := w.handle(context.Background(), messages.WalkEvent{Type: messages.WalkEventBookingRated, BookingID: "b1", Rating: 5})
	require.Error(t, err)
}

func TestWorker_InvalidMessagesDoNotPanic(t *testing.T) {
	n := &recordingNotifier{}
	w := newWorker(n, logging.Discard())

	w.invalid([]byte("{"), errors.New("unexpected end of JSON input"))
	require.Empty(t, n.events)
}
