// Package realtime carries row-level change notifications for bookings,
// location fixes and chat messages from writers to live subscribers.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dogwalk/internal/domain"
)

// ErrMalformedEvent is returned when a payload fails schema validation.
var ErrMalformedEvent = errors.New("malformed realtime event")

// Kind names a change notification channel.
type Kind string

const (
	KindBookingUpdated   Kind = "booking.updated"
	KindLocationInserted Kind = "location.inserted"
	KindMessageInserted  Kind = "message.inserted"
)

// Topic scopes a channel to one row key: the booking id for booking and
// location kinds, the conversation id for messages.
type Topic struct {
	Kind Kind
	Key  string
}

func (t Topic) String() string {
	return string(t.Kind) + ":" + t.Key
}

// Event is the envelope delivered to subscribers.
type Event struct {
	Kind    Kind            `json:"kind"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// Topic returns the channel the event belongs to.
func (e Event) Topic() Topic {
	return Topic{Kind: e.Kind, Key: e.Key}
}

// BookingUpdate is the payload of a booking.updated event.
type BookingUpdate struct {
	BookingID string               `json:"booking_id"`
	Status    domain.BookingStatus `json:"status"`
	WalkerID  string               `json:"walker_id,omitempty"`
	Rating    int                  `json:"rating,omitempty"`
}

// LocationInsert is the payload of a location.inserted event.
type LocationInsert struct {
	BookingID  string    `json:"booking_id"`
	WalkerID   string    `json:"walker_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

// Coordinate returns the inserted position.
func (l LocationInsert) Coordinate() domain.Coordinate {
	return domain.Coordinate{Lat: l.Lat, Lng: l.Lng}
}

// MessageInsert is the payload of a message.inserted event.
type MessageInsert struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewBookingUpdate builds the notification for a booking row change.
func NewBookingUpdate(b *domain.Booking) (Event, error) {
	return newEvent(KindBookingUpdated, b.ID, BookingUpdate{
		BookingID: b.ID,
		Status:    b.Status,
		WalkerID:  b.WalkerID,
		Rating:    b.Rating,
	})
}

// NewLocationInsert builds the notification for a new fix.
func NewLocationInsert(f *domain.LocationFix) (Event, error) {
	return newEvent(KindLocationInserted, f.BookingID, LocationInsert{
		BookingID:  f.BookingID,
		WalkerID:   f.WalkerID,
		Lat:        f.Lat,
		Lng:        f.Lng,
		CapturedAt: f.CapturedAt,
	})
}

// NewMessageInsert builds the notification for a new chat message.
func NewMessageInsert(m *domain.Message) (Event, error) {
	return newEvent(KindMessageInserted, m.ConversationID, MessageInsert{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	})
}

func newEvent(kind Kind, key string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{Kind: kind, Key: key, Payload: data}, nil
}

// DecodeBookingUpdate validates and decodes a booking.updated event.
func DecodeBookingUpdate(e Event) (BookingUpdate, error) {
	var u BookingUpdate
	if err := decode(e, KindBookingUpdated, &u); err != nil {
		return BookingUpdate{}, err
	}
	if u.BookingID != e.Key {
		return BookingUpdate{}, fmt.Errorf("%w: booking id %q does not match topic %q", ErrMalformedEvent, u.BookingID, e.Key)
	}
	if !u.Status.Valid() {
		return BookingUpdate{}, fmt.Errorf("%w: unknown status %q", ErrMalformedEvent, u.Status)
	}
	if u.Rating < 0 || u.Rating > 5 {
		return BookingUpdate{}, fmt.Errorf("%w: rating %d out of range", ErrMalformedEvent, u.Rating)
	}
	return u, nil
}

// DecodeLocationInsert validates and decodes a location.inserted event.
func DecodeLocationInsert(e Event) (LocationInsert, error) {
	var l LocationInsert
	if err := decode(e, KindLocationInserted, &l); err != nil {
		return LocationInsert{}, err
	}
	if l.BookingID != e.Key {
		return LocationInsert{}, fmt.Errorf("%w: booking id %q does not match topic %q", ErrMalformedEvent, l.BookingID, e.Key)
	}
	if !l.Coordinate().Valid() {
		return LocationInsert{}, fmt.Errorf("%w: coordinate (%f, %f) out of range", ErrMalformedEvent, l.Lat, l.Lng)
	}
	return l, nil
}

// DecodeMessageInsert validates and decodes a message.inserted event.
func DecodeMessageInsert(e Event) (MessageInsert, error) {
	var m MessageInsert
	if err := decode(e, KindMessageInserted, &m); err != nil {
		return MessageInsert{}, err
	}
	if m.ConversationID != e.Key {
		return MessageInsert{}, fmt.Errorf("%w: conversation id %q does not match topic %q", ErrMalformedEvent, m.ConversationID, e.Key)
	}
	if m.SenderID == "" || m.Text == "" {
		return MessageInsert{}, fmt.Errorf("%w: message without sender or text", ErrMalformedEvent)
	}
	return m, nil
}

func decode(e Event, want Kind, v any) error {
	if e.Kind != want {
		return fmt.Errorf("%w: kind %q, want %q", ErrMalformedEvent, e.Kind, want)
	}
	if e.Key == "" {
		return fmt.Errorf("%w: missing topic key", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
