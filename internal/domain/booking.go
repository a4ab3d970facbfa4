package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
)

// rank orders statuses along the walk lifecycle. Accepted and confirmed
// share a rank: both mean a walker has claimed the booking.
func (s BookingStatus) rank() int {
	switch s {
	case BookingStatusPending:
		return 0
	case BookingStatusAccepted, BookingStatusConfirmed:
		return 1
	case BookingStatusInProgress:
		return 2
	case BookingStatusCompleted:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether moving from s to next goes strictly forward.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() > s.rank()
}

// IsActive reports whether a walker is assigned and the walk has not finished.
// GPS is relayed only for active bookings.
func (s BookingStatus) IsActive() bool {
	switch s {
	case BookingStatusAccepted, BookingStatusConfirmed, BookingStatusInProgress:
		return true
	}
	return false
}

// WalkDuration is the duration category chosen at reservation time.
type WalkDuration string

const (
	WalkDurationShort  WalkDuration = "short"
	WalkDurationMedium WalkDuration = "medium"
	WalkDurationLong   WalkDuration = "long"
)

// Price returns the total price in minor currency units, or 0 for an unknown category.
func (d WalkDuration) Price() int64 {
	switch d {
	case WalkDurationShort:
		return 30000
	case WalkDurationMedium:
		return 55000
	case WalkDurationLong:
		return 75000
	default:
		return 0
	}
}

// Length returns the walk length for the category.
func (d WalkDuration) Length() time.Duration {
	switch d {
	case WalkDurationShort:
		return time.Hour
	case WalkDurationMedium:
		return 2 * time.Hour
	case WalkDurationLong:
		return 3 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether d is a known category.
func (d WalkDuration) Valid() bool {
	return d.Price() > 0
}

// Booking represents one walk engagement between an owner and a walker.
type Booking struct {
	ID            string
	OwnerID       string
	WalkerID      string // Empty while pending
	Address       string
	Lat           float64
	Lng           float64
	ScheduledDate string // YYYY-MM-DD
	ScheduledTime string // HH:MM
	Duration      WalkDuration
	TotalPrice    int64
	Status        BookingStatus
	CreatedAt     time.Time
	Rating        int // 0 means not rated
	ReviewText    string
}

// IsRated reports whether the owner already rated the walk.
func (b *Booking) IsRated() bool {
	return b.Rating > 0
}

// Coordinate returns the pickup coordinate.
func (b *Booking) Coordinate() Coordinate {
	return Coordinate{Lat: b.Lat, Lng: b.Lng}
}
