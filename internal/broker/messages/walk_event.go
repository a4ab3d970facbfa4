package messages

import "time"

type WalkEventType string

const (
	WalkEventBookingCreated   WalkEventType = "booking.created"
	WalkEventBookingAccepted  WalkEventType = "booking.accepted"
	WalkEventWalkStarted      WalkEventType = "walk.started"
	WalkEventWalkCompleted    WalkEventType = "walk.completed"
	WalkEventBookingRated     WalkEventType = "booking.rated"
	WalkEventLocationRecorded WalkEventType = "location.recorded"
)

// WalkEvent is the durable record of one booking lifecycle step.
type WalkEvent struct {
	Type      WalkEventType `json:"type"`
	BookingID string        `json:"booking_id"`
	OwnerID   string        `json:"owner_id,omitempty"`
	WalkerID  string        `json:"walker_id,omitempty"`
	Status    string        `json:"status,omitempty"`

	Amount      int64 `json:"amount,omitempty"`
	PlatformFee int64 `json:"platform_fee,omitempty"`
	NetEarning  int64 `json:"net_earning,omitempty"`

	Rating int      `json:"rating,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
