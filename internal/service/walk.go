package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/commission"
	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/realtime"
	"dogwalk/internal/repository"
)

// DefaultFinishLockTTL bounds how long a crashed finish can block a retry.
const DefaultFinishLockTTL = 30 * time.Second

// BookingLocker serializes finish requests per booking.
type BookingLocker interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// PositionCache keeps the latest walker position per booking.
type PositionCache interface {
	UpdatePosition(ctx context.Context, bookingID string, lat, lng float64) error
	Position(ctx context.Context, bookingID string) (*domain.Coordinate, error)
	RemovePosition(ctx context.Context, bookingID string) error
}

// LocalLocker is an in-process BookingLocker for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// AcquireBookingLock takes the booking lock if it is free. ttl is ignored.
func (l *LocalLocker) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[bookingID]; ok {
		return nil, false, nil
	}
	l.held[bookingID] = struct{}{}
	return func(context.Context) error {
		l.mu.Lock()
		delete(l.held, bookingID)
		l.mu.Unlock()
		return nil
	}, true, nil
}

// WalkService handles walker-side booking operations.
type WalkService struct {
	transactor  repository.Transactor
	bookingRepo repository.BookingRepository
	walkerRepo  repository.WalkerRepository
	locker      BookingLocker
	positions   PositionCache
	walkers     *WalkerService
	payments    *PaymentService
	out         broadcaster
	lockTTL     time.Duration
}

// NewWalkService creates a new WalkService. positions and walkers may be
// nil. Without payments, finished walks settle without capturing a hold.
func NewWalkService(
	transactor repository.Transactor,
	bookingRepo repository.BookingRepository,
	walkerRepo repository.WalkerRepository,
	locker BookingLocker,
	positions PositionCache,
	walkers *WalkerService,
	payments *PaymentService,
	feed realtime.Publisher,
	events EventSink,
	logger *slog.Logger,
) *WalkService {
	return &WalkService{
		transactor:  transactor,
		bookingRepo: bookingRepo,
		walkerRepo:  walkerRepo,
		locker:      locker,
		positions:   positions,
		walkers:     walkers,
		payments:    payments,
		out:         broadcaster{feed: feed, events: events, logger: logger},
		lockTTL:     DefaultFinishLockTTL,
	}
}

// AcceptBooking claims a pending booking for the walker. It returns false
// when another walker got there first. Only approved walkers may accept.
func (s *WalkService) AcceptBooking(ctx context.Context, bookingID, walkerID string) (bool, error) {
	if bookingID == "" {
		return false, ErrInvalidBookingID
	}
	if walkerID == "" {
		return false, ErrInvalidWalkerID
	}
	w, err := s.walkerRepo.GetByID(ctx, walkerID)
	if err != nil {
		return false, err
	}
	if w.Verification != domain.VerificationApproved {
		observability.AcceptAttemptsTotal.WithLabelValues("unverified").Inc()
		return false, ErrWalkerNotVerified
	}

	ok, err := s.bookingRepo.Accept(ctx, bookingID, walkerID)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.AcceptAttemptsTotal.WithLabelValues("taken").Inc()
		return false, nil
	}
	observability.AcceptAttemptsTotal.WithLabelValues("accepted").Inc()

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		s.out.logger.Warn("reload accepted booking", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		return true, nil
	}
	s.out.bookingUpdated(ctx, b)
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:       messages.WalkEventBookingAccepted,
		BookingID:  b.ID,
		OwnerID:    b.OwnerID,
		WalkerID:   walkerID,
		Status:     string(b.Status),
		OccurredAt: time.Now(),
	})
	return true, nil
}

// ClaimableBookings lists pending bookings no walker has claimed yet.
func (s *WalkService) ClaimableBookings(ctx context.Context, limit int) ([]*domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.bookingRepo.ListClaimable(ctx, limit)
}

// ActiveBookings lists the walker's accepted or in-progress bookings, oldest first.
func (s *WalkService) ActiveBookings(ctx context.Context, walkerID string) ([]*domain.Booking, error) {
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}
	return s.bookingRepo.ListActiveByWalker(ctx, walkerID)
}

// StartWalk moves an accepted booking to in_progress.
func (s *WalkService) StartWalk(ctx context.Context, bookingID, walkerID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}

	from := []domain.BookingStatus{domain.BookingStatusAccepted, domain.BookingStatusConfirmed}
	if err := s.bookingRepo.TransitionStatus(ctx, bookingID, walkerID, from, domain.BookingStatusInProgress); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.explainConflict(ctx, s.bookingRepo, bookingID, walkerID)
		}
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.out.bookingUpdated(ctx, b)
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:       messages.WalkEventWalkStarted,
		BookingID:  b.ID,
		OwnerID:    b.OwnerID,
		WalkerID:   walkerID,
		Status:     string(b.Status),
		OccurredAt: time.Now(),
	})
	return b, nil
}

// explainConflict turns a failed conditional update into a specific error.
func (s *WalkService) explainConflict(ctx context.Context, repo repository.BookingRepository, bookingID, walkerID string) error {
	b, err := repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.WalkerID != walkerID {
		return ErrWalkerNotAssigned
	}
	return ErrInvalidTransition
}

// FinishResult is the outcome of a finished walk.
type FinishResult struct {
	Booking     *domain.Booking
	Transaction *domain.Transaction
}

// FinishWalk completes the walk and settles the commission in one unit of
// work: the status change, the completed transaction and the walker balance
// are committed together or not at all. The owner's payment hold is
// captured inside the same unit of work, so a declined capture leaves the
// walk active.
func (s *WalkService) FinishWalk(ctx context.Context, bookingID, walkerID string) (*FinishResult, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}

	release, ok, err := s.locker.AcquireBookingLock(ctx, bookingID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFinishInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.out.logger.Warn("release finish lock", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		}
	}()

	var result FinishResult
	err = s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.WalkerID != walkerID {
			return ErrWalkerNotAssigned
		}
		if !b.Status.IsActive() {
			return ErrBookingNotActive
		}

		from := []domain.BookingStatus{domain.BookingStatusAccepted, domain.BookingStatusConfirmed, domain.BookingStatusInProgress}
		if err := tx.Bookings().TransitionStatus(ctx, bookingID, walkerID, from, domain.BookingStatusCompleted); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrBookingNotActive
			}
			return err
		}
		b.Status = domain.BookingStatusCompleted

		txn, err := settle(ctx, tx, b)
		if err != nil {
			return err
		}
		if s.payments != nil {
			if err := s.payments.Capture(ctx, txn); err != nil {
				return err
			}
		}

		result = FinishResult{Booking: b, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.WalksCompletedTotal.Inc()
	observability.PlatformFeesTotal.Add(float64(result.Transaction.PlatformFee))

	if s.positions != nil {
		if err := s.positions.RemovePosition(ctx, bookingID); err != nil {
			s.out.logger.Warn("remove walk position", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		}
	}
	if s.walkers != nil {
		s.walkers.invalidate(ctx, walkerID)
	}

	s.out.bookingUpdated(ctx, result.Booking)
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:        messages.WalkEventWalkCompleted,
		BookingID:   result.Booking.ID,
		OwnerID:     result.Booking.OwnerID,
		WalkerID:    walkerID,
		Status:      string(result.Booking.Status),
		Amount:      result.Transaction.Amount,
		PlatformFee: result.Transaction.PlatformFee,
		NetEarning:  result.Transaction.NetEarning,
		OccurredAt:  time.Now(),
	})
	return &result, nil
}

// settle applies the commission split to the booking's transaction and
// credits the walker. A booking without a recorded payment gets a
// transaction for its full price.
func settle(ctx context.Context, tx repository.Tx, b *domain.Booking) (*domain.Transaction, error) {
	split, err := commission.Compute(b.TotalPrice)
	if err != nil {
		return nil, err
	}

	txn, err := tx.Transactions().GetByBookingID(ctx, b.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		txn = &domain.Transaction{
			ID:        uuid.New().String(),
			BookingID: b.ID,
			OwnerID:   b.OwnerID,
			Amount:    b.TotalPrice,
			Status:    domain.TransactionStatusPending,
			CreatedAt: time.Now(),
		}
		if err := tx.Transactions().Create(ctx, txn); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	txn.WalkerID = b.WalkerID
	txn.GatewayFee = split.GatewayFee
	txn.PlatformFee = split.PlatformFee
	txn.NetEarning = split.NetEarning
	if err := tx.Transactions().Complete(ctx, txn); err != nil {
		return nil, err
	}

	if err := tx.Walkers().AddBalance(ctx, b.WalkerID, split.NetEarning); err != nil {
		return nil, err
	}
	return txn, nil
}
