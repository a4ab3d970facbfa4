package repository

import "context"

// Tx exposes repositories bound to one unit of work.
type Tx interface {
	Bookings() BookingRepository
	Transactions() TransactionRepository
	Walkers() WalkerRepository
}

// Transactor runs fn inside a unit of work. Every write made through tx is
// committed when fn returns nil and discarded otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
