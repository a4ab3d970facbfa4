package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// Postgres error codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// OwnerRepository implements repository.OwnerRepository using PostgreSQL.
type OwnerRepository struct {
	db *sql.DB
}

// NewOwnerRepository creates a new OwnerRepository.
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Create adds a new owner.
func (r *OwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	query := `INSERT INTO owners (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, owner.ID, owner.Name, owner.Email, owner.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return errors.Wrap(err, "insert owner")
	}
	return nil
}

// GetByID retrieves an owner by ID.
func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE id = $1`, id)
}

// GetByEmail retrieves an owner by email.
func (r *OwnerRepository) GetByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE email = $1`, email)
}

func (r *OwnerRepository) getOne(ctx context.Context, query string, arg string) (*domain.Owner, error) {
	var owner domain.Owner
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&owner.ID, &owner.Name, &owner.Email, &owner.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select owner")
	}
	return &owner, nil
}
