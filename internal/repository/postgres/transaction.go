package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// TransactionRepository is a PostgreSQL implementation of repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction repository using a database transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `id, booking_id, owner_id, walker_id, amount, gateway_fee, platform_fee, net_earning, status, payment_ref, created_at`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var walkerID sql.NullString
	var paymentRef sql.NullString
	if err := row.Scan(
		&t.ID, &t.BookingID, &t.OwnerID, &walkerID, &t.Amount, &t.GatewayFee, &t.PlatformFee,
		&t.NetEarning, &t.Status, &paymentRef, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.WalkerID = walkerID.String
	t.PaymentRef = paymentRef.String
	return &t, nil
}

// Create persists a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var walkerID sql.NullString
	if t.WalkerID != "" {
		walkerID = sql.NullString{String: t.WalkerID, Valid: true}
	}
	var paymentRef sql.NullString
	if t.PaymentRef != "" {
		paymentRef = sql.NullString{String: t.PaymentRef, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.BookingID, t.OwnerID, walkerID, t.Amount, t.GatewayFee, t.PlatformFee,
		t.NetEarning, t.Status, paymentRef, t.CreatedAt,
	)
	return errors.Wrap(err, "insert transaction")
}

// GetByBookingID retrieves the transaction of a booking.
func (r *TransactionRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE booking_id = $1`

	t, err := scanTransaction(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select transaction")
	}
	return t, nil
}

// Complete records the commission split on a pending transaction.
func (r *TransactionRepository) Complete(ctx context.Context, t *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET walker_id = $2, gateway_fee = $3, platform_fee = $4, net_earning = $5, status = $6
		WHERE id = $1 AND status = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		t.ID, t.WalkerID, t.GatewayFee, t.PlatformFee, t.NetEarning,
		domain.TransactionStatusCompleted, domain.TransactionStatusPending,
	)
	if err != nil {
		return errors.Wrap(err, "complete transaction")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	t.Status = domain.TransactionStatusCompleted
	return nil
}

// ListCompletedByWalker retrieves the walker's completed transactions, newest first.
func (r *TransactionRepository) ListCompletedByWalker(ctx context.Context, walkerID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE walker_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, walkerID, domain.TransactionStatusCompleted)
	if err != nil {
		return nil, errors.Wrap(err, "select transactions")
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
