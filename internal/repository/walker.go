package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// WalkerRepository defines the persistence operations for walker profiles.
type WalkerRepository interface {
	// Create adds a new walker.
	Create(ctx context.Context, walker *domain.WalkerProfile) error

	// GetByID retrieves a walker by ID.
	GetByID(ctx context.Context, id string) (*domain.WalkerProfile, error)

	// GetAll retrieves all walkers, newest first.
	GetAll(ctx context.Context) ([]*domain.WalkerProfile, error)

	// SetVerification moves the walker's verification status from one
	// value to another. Returns ErrConflict when the stored status is not
	// from, ErrNotFound when the walker does not exist.
	SetVerification(ctx context.Context, id string, from, to domain.VerificationStatus) error

	// AddBalance increments the stored balance of a walker.
	AddBalance(ctx context.Context, id string, delta int64) error

	// RecordReview folds a new 1-5 rating into the walker's average.
	RecordReview(ctx context.Context, id string, rating int) error
}
