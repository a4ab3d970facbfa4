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

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `id, owner_id, walker_id, address, lat, lng, scheduled_date, scheduled_time, duration, total_price, status, created_at, rating, review_text`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var walkerID sql.NullString
	var rating sql.NullInt64
	var review sql.NullString

	if err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&walkerID,
		&b.Address,
		&b.Lat,
		&b.Lng,
		&b.ScheduledDate,
		&b.ScheduledTime,
		&b.Duration,
		&b.TotalPrice,
		&b.Status,
		&b.CreatedAt,
		&rating,
		&review,
	); err != nil {
		return nil, err
	}

	if !b.Status.Valid() {
		return nil, errors.Errorf("booking %s: unknown status %q", b.ID, b.Status)
	}
	if walkerID.Valid {
		b.WalkerID = walkerID.String
	}
	if rating.Valid {
		b.Rating = int(rating.Int64)
	}
	if review.Valid {
		b.ReviewText = review.String
	}
	return &b, nil
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, owner_id, walker_id, address, lat, lng, scheduled_date, scheduled_time, duration, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var walkerID sql.NullString
	if b.WalkerID != "" {
		walkerID = sql.NullString{String: b.WalkerID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		b.ID,
		b.OwnerID,
		walkerID,
		b.Address,
		b.Lat,
		b.Lng,
		b.ScheduledDate,
		b.ScheduledTime,
		b.Duration,
		b.TotalPrice,
		b.Status,
		b.CreatedAt,
	)
	return errors.Wrap(err, "insert booking")
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select booking")
	}
	return b, nil
}

// GetLatestUnratedByOwner retrieves the newest booking of the owner without a rating.
func (r *BookingRepository) GetLatestUnratedByOwner(ctx context.Context, ownerID string) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE owner_id = $1 AND rating IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, ownerID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select latest unrated booking")
	}
	return b, nil
}

// ListClaimable retrieves pending bookings that no walker has claimed.
func (r *BookingRepository) ListClaimable(ctx context.Context, limit int) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND walker_id IS NULL
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, domain.BookingStatusPending, limit)
}

// ListActiveByWalker retrieves the walker's bookings that are not completed.
func (r *BookingRepository) ListActiveByWalker(ctx context.Context, walkerID string) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE walker_id = $1 AND status = ANY($2)
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, walkerID, pq.Array(activeStatuses))
}

// activeStatuses are the statuses domain.BookingStatus.IsActive accepts.
var activeStatuses = []string{
	string(domain.BookingStatusAccepted),
	string(domain.BookingStatusConfirmed),
	string(domain.BookingStatusInProgress),
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select bookings")
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan booking")
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Accept claims the booking for the walker with a single conditional update.
func (r *BookingRepository) Accept(ctx context.Context, bookingID, walkerID string) (bool, error) {
	query := `
		UPDATE bookings
		SET walker_id = $2, status = $3
		WHERE id = $1 AND walker_id IS NULL AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, bookingID, walkerID, domain.BookingStatusAccepted, domain.BookingStatusPending)
	if err != nil {
		return false, errors.Wrap(err, "accept booking")
	}
	return affectedOne(result)
}

// TransitionStatus moves an assigned booking forward if its status is one of from.
func (r *BookingRepository) TransitionStatus(ctx context.Context, bookingID, walkerID string, from []domain.BookingStatus, to domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $3
		WHERE id = $1 AND walker_id = $2 AND status = ANY($4)
	`

	allowed := make([]string, 0, len(from))
	for _, s := range from {
		if s.CanTransitionTo(to) {
			allowed = append(allowed, string(s))
		}
	}
	if len(allowed) == 0 {
		return repository.ErrConflict
	}

	result, err := r.q.ExecContext(ctx, query, bookingID, walkerID, to, pq.Array(allowed))
	if err != nil {
		return errors.Wrap(err, "update booking status")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	return nil
}

// SetRating stores the owner's rating on a completed, unrated booking.
func (r *BookingRepository) SetRating(ctx context.Context, bookingID string, rating int, review string) error {
	query := `
		UPDATE bookings
		SET rating = $2, review_text = $3
		WHERE id = $1 AND status = $4 AND rating IS NULL
	`

	var reviewText sql.NullString
	if review != "" {
		reviewText = sql.NullString{String: review, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, bookingID, rating, reviewText, domain.BookingStatusCompleted)
	if err != nil {
		return errors.Wrap(err, "update booking rating")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	return nil
}
