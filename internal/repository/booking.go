package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetLatestUnratedByOwner retrieves the most recently created booking of
	// the owner that has no rating yet. Returns ErrNotFound if none exists.
	GetLatestUnratedByOwner(ctx context.Context, ownerID string) (*domain.Booking, error)

	// ListClaimable retrieves pending bookings with no walker, oldest first.
	ListClaimable(ctx context.Context, limit int) ([]*domain.Booking, error)

	// ListActiveByWalker retrieves bookings assigned to the walker that are
	// not completed, oldest first.
	ListActiveByWalker(ctx context.Context, walkerID string) ([]*domain.Booking, error)

	// Accept assigns the walker only if the booking is still pending and
	// unassigned. The check and the write are a single conditional update.
	Accept(ctx context.Context, bookingID, walkerID string) (bool, error)

	// TransitionStatus moves the booking to status `to` if it is assigned to
	// walkerID and its current status is one of `from`. Returns ErrConflict
	// when the condition does not hold.
	TransitionStatus(ctx context.Context, bookingID, walkerID string, from []domain.BookingStatus, to domain.BookingStatus) error

	// SetRating stores the rating and review once, only for completed
	// bookings. Returns ErrConflict when already rated or not completed.
	SetRating(ctx context.Context, bookingID string, rating int, review string) error
}
