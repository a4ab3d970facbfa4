package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// WalkerRepository is a PostgreSQL implementation of repository.WalkerRepository.
type WalkerRepository struct {
	q Querier
}

// NewWalkerRepository creates a new PostgreSQL walker repository.
func NewWalkerRepository(db *sql.DB) *WalkerRepository {
	return &WalkerRepository{q: db}
}

// NewWalkerRepositoryWithTx creates a walker repository using a transaction.
func NewWalkerRepositoryWithTx(tx *sql.Tx) *WalkerRepository {
	return &WalkerRepository{q: tx}
}

// Create adds a new walker.
func (r *WalkerRepository) Create(ctx context.Context, w *domain.WalkerProfile) error {
	query := `
		INSERT INTO walkers (id, name, photo_url, rating, reviews, verification_status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query, w.ID, w.Name, w.PhotoURL, w.Rating, w.Reviews, w.Verification, w.Balance, w.CreatedAt)
	return errors.Wrap(err, "insert walker")
}

// GetByID retrieves a walker by ID.
func (r *WalkerRepository) GetByID(ctx context.Context, id string) (*domain.WalkerProfile, error) {
	query := `
		SELECT id, name, photo_url, rating, reviews, verification_status, balance, created_at
		FROM walkers WHERE id = $1
	`

	var w domain.WalkerProfile
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.Name, &w.PhotoURL, &w.Rating, &w.Reviews, &w.Verification, &w.Balance, &w.CreatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select walker")
	}
	return &w, nil
}

// GetAll retrieves all walkers.
func (r *WalkerRepository) GetAll(ctx context.Context) ([]*domain.WalkerProfile, error) {
	query := `
		SELECT id, name, photo_url, rating, reviews, verification_status, balance, created_at
		FROM walkers ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "select walkers")
	}
	defer rows.Close()

	var walkers []*domain.WalkerProfile
	for rows.Next() {
		var w domain.WalkerProfile
		if err := rows.Scan(&w.ID, &w.Name, &w.PhotoURL, &w.Rating, &w.Reviews, &w.Verification, &w.Balance, &w.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan walker")
		}
		walkers = append(walkers, &w)
	}
	return walkers, rows.Err()
}

// SetVerification moves the verification status when it still equals from.
func (r *WalkerRepository) SetVerification(ctx context.Context, id string, from, to domain.VerificationStatus) error {
	query := `UPDATE walkers SET verification_status = $3 WHERE id = $1 AND verification_status = $2`

	result, err := r.q.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return errors.Wrap(err, "update walker verification")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM walkers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return errors.Wrap(err, "check walker exists")
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// AddBalance increments the walker's balance.
func (r *WalkerRepository) AddBalance(ctx context.Context, id string, delta int64) error {
	query := `UPDATE walkers SET balance = balance + $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id, delta)
	if err != nil {
		return errors.Wrap(err, "update walker balance")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

// RecordReview folds a new rating into the walker's running average.
func (r *WalkerRepository) RecordReview(ctx context.Context, id string, rating int) error {
	query := `
		UPDATE walkers
		SET rating = (rating * reviews + $2) / (reviews + 1), reviews = reviews + 1
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id, float64(rating))
	if err != nil {
		return errors.Wrap(err, "update walker rating")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}
