package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/observability"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated  NotificationType = "BOOKING_CREATED"
	NotificationWalkerAssigned  NotificationType = "WALKER_ASSIGNED"
	NotificationWalkStarted     NotificationType = "WALK_STARTED"
	NotificationWalkCompleted   NotificationType = "WALK_COMPLETED"
	NotificationEarningRecorded NotificationType = "EARNING_RECORDED"
	NotificationRatingReceived  NotificationType = "RATING_RECEIVED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // Owner or walker ID
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService turns walk events into owner and walker notifications.
// Delivery channels are external; notifications are logged.
type NotificationService struct {
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

// HandleWalkEvent emits the notifications for one walk event.
func (s *NotificationService) HandleWalkEvent(ctx context.Context, e messages.WalkEvent) error {
	data := map[string]any{"booking_id": e.BookingID}

	switch e.Type {
	case messages.WalkEventBookingCreated:
		s.send(ctx, Notification{
			Type:        NotificationBookingCreated,
			RecipientID: e.OwnerID,
			Title:       "Walk booked",
			Message:     "We are looking for a walker for your dog",
			Data:        data,
		})
	case messages.WalkEventBookingAccepted:
		s.send(ctx, Notification{
			Type:        NotificationWalkerAssigned,
			RecipientID: e.OwnerID,
			Title:       "Walker assigned",
			Message:     "A walker accepted your booking",
			Data:        withField(data, "walker_id", e.WalkerID),
		})
	case messages.WalkEventWalkStarted:
		s.send(ctx, Notification{
			Type:        NotificationWalkStarted,
			RecipientID: e.OwnerID,
			Title:       "Walk started",
			Message:     "Your dog is out for a walk. Follow it live on the map",
			Data:        data,
		})
	case messages.WalkEventWalkCompleted:
		s.send(ctx, Notification{
			Type:        NotificationWalkCompleted,
			RecipientID: e.OwnerID,
			Title:       "Walk completed",
			Message:     "The walk is over. Tell us how it went",
			Data:        data,
		})
		s.send(ctx, Notification{
			Type:        NotificationEarningRecorded,
			RecipientID: e.WalkerID,
			Title:       "Earning recorded",
			Message:     fmt.Sprintf("You earned %d for this walk", e.NetEarning),
			Data:        withField(data, "net_earning", e.NetEarning),
		})
	case messages.WalkEventBookingRated:
		s.send(ctx, Notification{
			Type:        NotificationRatingReceived,
			RecipientID: e.WalkerID,
			Title:       "New rating",
			Message:     fmt.Sprintf("An owner rated your walk %d/5", e.Rating),
			Data:        withField(data, "rating", e.Rating),
		})
	}
	return nil
}

func withField(data map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out[key] = value
	return out
}

// send records a notification.
func (s *NotificationService) send(ctx context.Context, n Notification) {
	if n.RecipientID == "" {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	observability.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()
	s.logger.InfoContext(ctx, "notification",
		slog.String("type", string(n.Type)),
		slog.String("recipient_id", n.RecipientID),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
		slog.Any("data", n.Data))
}
