package memory

import (
	"context"
	"sort"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// LocationRepository is an in-memory repository.LocationRepository.
type LocationRepository struct {
	v view
}

var _ repository.LocationRepository = (*LocationRepository)(nil)

func (r *LocationRepository) Append(ctx context.Context, fix *domain.LocationFix) error {
	return r.v.do(func(st *state) error {
		b, ok := st.bookings[fix.BookingID]
		if !ok || b.WalkerID != fix.WalkerID || !b.Status.IsActive() {
			return repository.ErrConflict
		}
		fixes := append(st.locations[fix.BookingID], *fix)
		sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].CapturedAt.Before(fixes[j].CapturedAt) })
		st.locations[fix.BookingID] = fixes
		return nil
	})
}

func (r *LocationRepository) Latest(ctx context.Context, bookingID string) (*domain.LocationFix, error) {
	var out *domain.LocationFix
	err := r.v.do(func(st *state) error {
		fixes := st.locations[bookingID]
		if len(fixes) == 0 {
			return repository.ErrNotFound
		}
		f := fixes[len(fixes)-1]
		out = &f
		return nil
	})
	return out, err
}

func (r *LocationRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.LocationFix, error) {
	var out []*domain.LocationFix
	err := r.v.do(func(st *state) error {
		for _, f := range st.locations[bookingID] {
			out = append(out, &f)
		}
		return nil
	})
	return out, err
}
