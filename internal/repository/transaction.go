package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// TransactionRepository defines the persistence operations for booking transactions.
type TransactionRepository interface {
	// Create persists a new transaction.
	Create(ctx context.Context, txn *domain.Transaction) error

	// GetByBookingID retrieves the transaction of a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error)

	// Complete stores the commission split and marks the transaction completed.
	Complete(ctx context.Context, txn *domain.Transaction) error

	// ListCompletedByWalker retrieves completed transactions of a walker.
	ListCompletedByWalker(ctx context.Context, walkerID string) ([]*domain.Transaction, error)
}
