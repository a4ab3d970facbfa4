package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// OwnerService handles owner registration and lookup.
type OwnerService struct {
	ownerRepo repository.OwnerRepository
}

// NewOwnerService creates a new OwnerService.
func NewOwnerService(ownerRepo repository.OwnerRepository) *OwnerService {
	return &OwnerService{ownerRepo: ownerRepo}
}

// Register creates an owner. Emails are unique.
func (s *OwnerService) Register(ctx context.Context, name, email string) (*domain.Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	owner := &domain.Owner{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrOwnerExists
		}
		return nil, err
	}
	return owner, nil
}

// Owner retrieves an owner by ID.
func (s *OwnerService) Owner(ctx context.Context, ownerID string) (*domain.Owner, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwnerID
	}
	return s.ownerRepo.GetByID(ctx, ownerID)
}
