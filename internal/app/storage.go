package app

import (
	"database/sql"

	"dogwalk/internal/repository"
	"dogwalk/internal/repository/memory"
	"dogwalk/internal/repository/postgres"
)

// Storage bundles the repositories behind one backend.
type Storage struct {
	Transactor   repository.Transactor
	Bookings     repository.BookingRepository
	Locations    repository.LocationRepository
	Walkers      repository.WalkerRepository
	Owners       repository.OwnerRepository
	Transactions repository.TransactionRepository

	Conversations repository.ConversationRepository
}

// NewPostgresStorage builds the repositories on a PostgreSQL pool.
func NewPostgresStorage(db *sql.DB) *Storage {
	return &Storage{
		Transactor:   postgres.NewTransactor(db),
		Bookings:     postgres.NewBookingRepository(db),
		Locations:    postgres.NewLocationRepository(db),
		Walkers:      postgres.NewWalkerRepository(db),
		Owners:       postgres.NewOwnerRepository(db),
		Transactions: postgres.NewTransactionRepository(db),

		Conversations: postgres.NewConversationRepository(db),
	}
}

// NewMemoryStorage builds process-local repositories.
func NewMemoryStorage() *Storage {
	store := memory.NewStore()
	return &Storage{
		Transactor:   store,
		Bookings:     store.Bookings(),
		Locations:    store.Locations(),
		Walkers:      store.Walkers(),
		Owners:       store.Owners(),
		Transactions: store.Transactions(),

		Conversations: store.Conversations(),
	}
}
