package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// LocationRepository defines the persistence operations for location fixes.
// Fixes are append-only.
type LocationRepository interface {
	// Append stores a new fix in the same step that checks its booking is
	// active and assigned to fix.WalkerID. Returns ErrConflict otherwise.
	Append(ctx context.Context, fix *domain.LocationFix) error

	// Latest retrieves the freshest fix of a booking. Returns ErrNotFound if none.
	Latest(ctx context.Context, bookingID string) (*domain.LocationFix, error)

	// ListByBooking retrieves fixes of a booking ordered by capture time.
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.LocationFix, error)
}
