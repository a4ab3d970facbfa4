package memory

import (
	"context"
	"sort"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// WalkerRepository is an in-memory repository.WalkerRepository.
type WalkerRepository struct {
	v view
}

var _ repository.WalkerRepository = (*WalkerRepository)(nil)

func (r *WalkerRepository) Create(ctx context.Context, w *domain.WalkerProfile) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.walkers[w.ID]; ok {
			return repository.ErrDuplicate
		}
		st.walkers[w.ID] = *w
		return nil
	})
}

func (r *WalkerRepository) GetByID(ctx context.Context, id string) (*domain.WalkerProfile, error) {
	var out *domain.WalkerProfile
	err := r.v.do(func(st *state) error {
		w, ok := st.walkers[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *WalkerRepository) GetAll(ctx context.Context) ([]*domain.WalkerProfile, error) {
	var out []*domain.WalkerProfile
	err := r.v.do(func(st *state) error {
		for _, w := range st.walkers {
			out = append(out, &w)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *WalkerRepository) SetVerification(ctx context.Context, id string, from, to domain.VerificationStatus) error {
	return r.v.do(func(st *state) error {
		w, ok := st.walkers[id]
		if !ok {
			return repository.ErrNotFound
		}
		if w.Verification != from {
			return repository.ErrConflict
		}
		w.Verification = to
		st.walkers[id] = w
		return nil
	})
}

func (r *WalkerRepository) AddBalance(ctx context.Context, id string, delta int64) error {
	return r.v.do(func(st *state) error {
		w, ok := st.walkers[id]
		if !ok {
			return repository.ErrNotFound
		}
		w.Balance += delta
		st.walkers[id] = w
		return nil
	})
}

func (r *WalkerRepository) RecordReview(ctx context.Context, id string, rating int) error {
	return r.v.do(func(st *state) error {
		w, ok := st.walkers[id]
		if !ok {
			return repository.ErrNotFound
		}
		w.Rating = (w.Rating*float64(w.Reviews) + float64(rating)) / float64(w.Reviews+1)
		w.Reviews++
		st.walkers[id] = w
		return nil
	})
}
