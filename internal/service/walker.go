package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/domain"
	"dogwalk/internal/redis"
	"dogwalk/internal/repository"
)

// WalkerService handles walker profiles, balances and presence.
type WalkerService struct {
	walkerRepo      repository.WalkerRepository
	transactionRepo repository.TransactionRepository
	cache           redis.CacheStoreInterface
	logger          *slog.Logger

	// presence without a cache
	mu     sync.Mutex
	online map[string]bool
}

// NewWalkerService creates a new WalkerService. cache may be nil.
func NewWalkerService(
	walkerRepo repository.WalkerRepository,
	transactionRepo repository.TransactionRepository,
	cache redis.CacheStoreInterface,
	logger *slog.Logger,
) *WalkerService {
	return &WalkerService{
		walkerRepo:      walkerRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		logger:          logger,
		online:          make(map[string]bool),
	}
}

// RegisterWalkerRequest contains the parameters for registering a walker.
type RegisterWalkerRequest struct {
	Name     string
	PhotoURL string
}

// Register creates a walker profile awaiting verification.
func (s *WalkerService) Register(ctx context.Context, req RegisterWalkerRequest) (*domain.WalkerProfile, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	w := &domain.WalkerProfile{
		ID:           uuid.New().String(),
		Name:         name,
		PhotoURL:     strings.TrimSpace(req.PhotoURL),
		Verification: domain.VerificationPending,
		CreatedAt:    time.Now(),
	}
	if err := s.walkerRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Walker resolves a profile, reading through the cache.
func (s *WalkerService) Walker(ctx context.Context, walkerID string) (*domain.WalkerProfile, error) {
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}

	if s.cache != nil {
		cached, err := s.cache.GetWalker(ctx, walkerID)
		if err != nil {
			s.logger.Warn("read walker cache", slog.String("walker_id", walkerID), slog.String("error", err.Error()))
		}
		if cached != nil {
			return fromCached(cached), nil
		}
	}

	w, err := s.walkerRepo.GetByID(ctx, walkerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetWalker(ctx, toCached(w)); err != nil {
			s.logger.Warn("write walker cache", slog.String("walker_id", walkerID), slog.String("error", err.Error()))
		}
	}
	return w, nil
}

func (s *WalkerService) invalidate(ctx context.Context, walkerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWalker(ctx, walkerID); err != nil {
		s.logger.Warn("invalidate walker cache", slog.String("walker_id", walkerID), slog.String("error", err.Error()))
	}
}

// BalanceSummary is a walker's wallet view.
type BalanceSummary struct {
	WalkerID    string
	Balance     int64
	TotalEarned int64
	Earnings    []*domain.Transaction
}

// Balance returns the stored balance and completed earnings. It bypasses
// the cache.
func (s *WalkerService) Balance(ctx context.Context, walkerID string) (*BalanceSummary, error) {
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}

	w, err := s.walkerRepo.GetByID(ctx, walkerID)
	if err != nil {
		return nil, err
	}
	earnings, err := s.transactionRepo.ListCompletedByWalker(ctx, walkerID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{WalkerID: w.ID, Balance: w.Balance, Earnings: earnings}
	for _, t := range earnings {
		summary.TotalEarned += t.NetEarning
	}
	return summary, nil
}

// SetOnline records walker presence. With a cache the flag lives in Redis
// and outlives the process; without one it is kept in memory.
func (s *WalkerService) SetOnline(ctx context.Context, walkerID string, online bool) error {
	if walkerID == "" {
		return ErrInvalidWalkerID
	}
	if _, err := s.walkerRepo.GetByID(ctx, walkerID); err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.SetWalkerOnline(ctx, walkerID, online)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if online {
		s.online[walkerID] = true
	} else {
		delete(s.online, walkerID)
	}
	return nil
}

// IsOnline reports the presence flag.
func (s *WalkerService) IsOnline(ctx context.Context, walkerID string) (bool, error) {
	if walkerID == "" {
		return false, ErrInvalidWalkerID
	}
	if s.cache != nil {
		return s.cache.IsWalkerOnline(ctx, walkerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[walkerID], nil
}

// ListWalkers returns walker profiles, newest first. An empty status lists
// every walker.
func (s *WalkerService) ListWalkers(ctx context.Context, status domain.VerificationStatus) ([]*domain.WalkerProfile, error) {
	walkers, err := s.walkerRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return walkers, nil
	}

	filtered := make([]*domain.WalkerProfile, 0, len(walkers))
	for _, w := range walkers {
		if w.Verification == status {
			filtered = append(filtered, w)
		}
	}
	return filtered, nil
}

// ReviewVerification approves or rejects a pending walker. A decision is
// final: reviewing an already reviewed walker fails.
func (s *WalkerService) ReviewVerification(ctx context.Context, walkerID string, decision domain.VerificationStatus) (*domain.WalkerProfile, error) {
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}
	if decision != domain.VerificationApproved && decision != domain.VerificationRejected {
		return nil, ErrInvalidVerification
	}

	err := s.walkerRepo.SetVerification(ctx, walkerID, domain.VerificationPending, decision)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrVerificationReviewed
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, walkerID)

	s.logger.Info("walker verification reviewed",
		slog.String("walker_id", walkerID),
		slog.String("decision", string(decision)))
	return s.walkerRepo.GetByID(ctx, walkerID)
}

func toCached(w *domain.WalkerProfile) *redis.CachedWalker {
	return &redis.CachedWalker{
		ID:           w.ID,
		Name:         w.Name,
		PhotoURL:     w.PhotoURL,
		Rating:       w.Rating,
		Reviews:      w.Reviews,
		Verification: string(w.Verification),
		Balance:      w.Balance,
	}
}

func fromCached(c *redis.CachedWalker) *domain.WalkerProfile {
	return &domain.WalkerProfile{
		ID:           c.ID,
		Name:         c.Name,
		PhotoURL:     c.PhotoURL,
		Rating:       c.Rating,
		Reviews:      c.Reviews,
		Verification: domain.VerificationStatus(c.Verification),
		Balance:      c.Balance,
	}
}
