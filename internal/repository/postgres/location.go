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

// LocationRepository is a PostgreSQL implementation of repository.LocationRepository.
type LocationRepository struct {
	q Querier
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{q: db}
}

// Append inserts a fix only while its booking is active for the walker, so
// a fix racing a finish is never stored after completion. Rows are never
// updated.
func (r *LocationRepository) Append(ctx context.Context, fix *domain.LocationFix) error {
	query := `
		INSERT INTO locations (id, booking_id, walker_id, lat, lng, captured_at)
		SELECT $1::text, $2::text, $3::text, $4::double precision, $5::double precision, $6::timestamptz
		WHERE EXISTS (
			SELECT 1 FROM bookings
			WHERE id = $2::text AND walker_id = $3::text AND status = ANY($7::text[])
		)
	`
	result, err := r.q.ExecContext(ctx, query,
		fix.ID, fix.BookingID, fix.WalkerID, fix.Lat, fix.Lng, fix.CapturedAt, pq.Array(activeStatuses),
	)
	if err != nil {
		return errors.Wrap(err, "insert location")
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

// Latest retrieves the freshest fix of a booking.
func (r *LocationRepository) Latest(ctx context.Context, bookingID string) (*domain.LocationFix, error) {
	query := `
		SELECT id, booking_id, walker_id, lat, lng, captured_at
		FROM locations
		WHERE booking_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`

	var f domain.LocationFix
	err := r.q.QueryRowContext(ctx, query, bookingID).Scan(&f.ID, &f.BookingID, &f.WalkerID, &f.Lat, &f.Lng, &f.CapturedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select latest location")
	}
	return &f, nil
}

// ListByBooking retrieves all fixes of a booking in capture order.
func (r *LocationRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.LocationFix, error) {
	query := `
		SELECT id, booking_id, walker_id, lat, lng, captured_at
		FROM locations
		WHERE booking_id = $1
		ORDER BY captured_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, errors.Wrap(err, "select locations")
	}
	defer rows.Close()

	var fixes []*domain.LocationFix
	for rows.Next() {
		var f domain.LocationFix
		if err := rows.Scan(&f.ID, &f.BookingID, &f.WalkerID, &f.Lat, &f.Lng, &f.CapturedAt); err != nil {
			return nil, errors.Wrap(err, "scan location")
		}
		fixes = append(fixes, &f)
	}
	return fixes, rows.Err()
}
