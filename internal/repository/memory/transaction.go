package memory

import (
	"context"
	"sort"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// TransactionRepository is an in-memory repository.TransactionRepository.
type TransactionRepository struct {
	v view
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.transactions[t.BookingID]; ok {
			return repository.ErrDuplicate
		}
		st.transactions[t.BookingID] = *t
		return nil
	})
}

func (r *TransactionRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.v.do(func(st *state) error {
		t, ok := st.transactions[bookingID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *TransactionRepository) Complete(ctx context.Context, t *domain.Transaction) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.transactions[t.BookingID]
		if !ok || cur.ID != t.ID || cur.Status != domain.TransactionStatusPending {
			return repository.ErrConflict
		}
		cur.WalkerID = t.WalkerID
		cur.GatewayFee = t.GatewayFee
		cur.PlatformFee = t.PlatformFee
		cur.NetEarning = t.NetEarning
		cur.Status = domain.TransactionStatusCompleted
		st.transactions[t.BookingID] = cur
		t.Status = cur.Status
		return nil
	})
}

func (r *TransactionRepository) ListCompletedByWalker(ctx context.Context, walkerID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.v.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.WalkerID == walkerID && t.Status == domain.TransactionStatusCompleted {
				out = append(out, &t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
