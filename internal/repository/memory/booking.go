package memory

import (
	"context"
	"slices"
	"sort"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// BookingRepository is an in-memory repository.BookingRepository.
type BookingRepository struct {
	v view
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.bookings[b.ID]; ok {
			return repository.ErrDuplicate
		}
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.v.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *BookingRepository) GetLatestUnratedByOwner(ctx context.Context, ownerID string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.OwnerID != ownerID || b.IsRated() {
				continue
			}
			if out == nil || b.CreatedAt.After(out.CreatedAt) {
				out = &b
			}
		}
		if out == nil {
			return repository.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *BookingRepository) ListClaimable(ctx context.Context, limit int) ([]*domain.Booking, error) {
	return r.filter(limit, func(b domain.Booking) bool {
		return b.Status == domain.BookingStatusPending && b.WalkerID == ""
	})
}

func (r *BookingRepository) ListActiveByWalker(ctx context.Context, walkerID string) ([]*domain.Booking, error) {
	return r.filter(0, func(b domain.Booking) bool {
		return b.WalkerID == walkerID && b.Status.IsActive()
	})
}

// filter returns matching bookings oldest first. A limit of 0 means no limit.
func (r *BookingRepository) filter(limit int, keep func(domain.Booking) bool) ([]*domain.Booking, error) {
	var out []*domain.Booking
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if keep(b) {
				out = append(out, &b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *BookingRepository) Accept(ctx context.Context, bookingID, walkerID string) (bool, error) {
	accepted := false
	err := r.v.do(func(st *state) error {
		b, ok := st.bookings[bookingID]
		if !ok || b.WalkerID != "" || b.Status != domain.BookingStatusPending {
			return nil
		}
		b.WalkerID = walkerID
		b.Status = domain.BookingStatusAccepted
		st.bookings[bookingID] = b
		accepted = true
		return nil
	})
	return accepted, err
}

func (r *BookingRepository) TransitionStatus(ctx context.Context, bookingID, walkerID string, from []domain.BookingStatus, to domain.BookingStatus) error {
	return r.v.do(func(st *state) error {
		b, ok := st.bookings[bookingID]
		if !ok || b.WalkerID != walkerID || !slices.Contains(from, b.Status) || !b.Status.CanTransitionTo(to) {
			return repository.ErrConflict
		}
		b.Status = to
		st.bookings[bookingID] = b
		return nil
	})
}

func (r *BookingRepository) SetRating(ctx context.Context, bookingID string, rating int, review string) error {
	return r.v.do(func(st *state) error {
		b, ok := st.bookings[bookingID]
		if !ok || b.Status != domain.BookingStatusCompleted || b.IsRated() {
			return repository.ErrConflict
		}
		b.Rating = rating
		b.ReviewText = review
		st.bookings[bookingID] = b
		return nil
	})
}
