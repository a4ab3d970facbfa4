package memory

import (
	"context"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// OwnerRepository is an in-memory repository.OwnerRepository.
type OwnerRepository struct {
	v view
}

var _ repository.OwnerRepository = (*OwnerRepository)(nil)

func (r *OwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	return r.v.do(func(st *state) error {
		for _, o := range st.owners {
			if o.ID == owner.ID || o.Email == owner.Email {
				return repository.ErrDuplicate
			}
		}
		st.owners[owner.ID] = *owner
		return nil
	})
}

func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	var out *domain.Owner
	err := r.v.do(func(st *state) error {
		o, ok := st.owners[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *OwnerRepository) GetByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	var out *domain.Owner
	err := r.v.do(func(st *state) error {
		for _, o := range st.owners {
			if o.Email == email {
				out = &o
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}
