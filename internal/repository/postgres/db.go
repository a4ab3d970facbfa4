package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"dogwalk/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)

	_ repository.Transactor = (*Transactor)(nil)
)

// Transactor runs units of work inside a database transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new PostgreSQL transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

type txRepos struct {
	tx *sql.Tx
}

func (t txRepos) Bookings() repository.BookingRepository {
	return NewBookingRepositoryWithTx(t.tx)
}

func (t txRepos) Transactions() repository.TransactionRepository {
	return NewTransactionRepositoryWithTx(t.tx)
}

func (t txRepos) Walkers() repository.WalkerRepository {
	return NewWalkerRepositoryWithTx(t.tx)
}

// WithinTx begins a transaction, runs fn and commits when fn succeeds.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, txRepos{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// affectedOne reports whether exactly one row was touched.
func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n == 1, nil
}
