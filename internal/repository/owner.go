package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// OwnerRepository defines the persistence operations for owners.
type OwnerRepository interface {
	// Create adds a new owner.
	Create(ctx context.Context, owner *domain.Owner) error

	// GetByID retrieves an owner by ID.
	GetByID(ctx context.Context, id string) (*domain.Owner, error)

	// GetByEmail retrieves an owner by email.
	GetByEmail(ctx context.Context, email string) (*domain.Owner, error)
}
