package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/realtime"
	"dogwalk/internal/repository"
)

// BookingService handles owner-side booking operations.
type BookingService struct {
	transactor     repository.Transactor
	bookingRepo    repository.BookingRepository
	ownerRepo      repository.OwnerRepository
	locationRepo   repository.LocationRepository
	paymentService *PaymentService
	walkers        *WalkerService
	out            broadcaster
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	transactor repository.Transactor,
	bookingRepo repository.BookingRepository,
	ownerRepo repository.OwnerRepository,
	locationRepo repository.LocationRepository,
	paymentService *PaymentService,
	feed realtime.Publisher,
	events EventSink,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		transactor:     transactor,
		bookingRepo:    bookingRepo,
		ownerRepo:      ownerRepo,
		locationRepo:   locationRepo,
		paymentService: paymentService,
		out:            broadcaster{feed: feed, events: events, logger: logger},
	}
}

// UseWalkerCache makes ratings evict the rated walker's cached profile.
func (s *BookingService) UseWalkerCache(walkers *WalkerService) {
	s.walkers = walkers
}

// CreateBookingRequest contains the parameters for reserving a walk.
type CreateBookingRequest struct {
	OwnerID       string
	Address       string
	Lat           float64
	Lng           float64
	ScheduledDate string // YYYY-MM-DD
	ScheduledTime string // HH:MM
	Duration      domain.WalkDuration
	PaymentMethod string // PSP payment method token held at reservation
}

// CreateBooking reserves a walk. The price is derived from the duration and
// held on the owner's payment method in the same unit of work that inserts
// the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if err := validateCreateBooking(req); err != nil {
		return nil, err
	}

	if _, err := s.ownerRepo.GetByID(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:            uuid.New().String(),
		OwnerID:       req.OwnerID,
		Address:       strings.TrimSpace(req.Address),
		Lat:           req.Lat,
		Lng:           req.Lng,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Duration:      req.Duration,
		TotalPrice:    req.Duration.Price(),
		Status:        domain.BookingStatusPending,
		CreatedAt:     time.Now(),
	}

	var charged *domain.Transaction
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return err
		}
		txn, err := s.paymentService.ChargeBooking(ctx, tx.Transactions(), booking, req.PaymentMethod)
		if err != nil {
			return err
		}
		charged = txn
		return nil
	})
	if err != nil {
		// The hold went through but the booking was rolled back.
		if cerr := s.paymentService.Cancel(context.WithoutCancel(ctx), charged); cerr != nil {
			s.out.logger.Error("release hold of rolled back booking", slog.String("booking_id", booking.ID), slog.String("error", cerr.Error()))
		}
		return nil, err
	}

	observability.BookingsCreatedTotal.Inc()
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:       messages.WalkEventBookingCreated,
		BookingID:  booking.ID,
		OwnerID:    booking.OwnerID,
		Status:     string(booking.Status),
		Amount:     booking.TotalPrice,
		OccurredAt: booking.CreatedAt,
	})
	return booking, nil
}

func validateCreateBooking(req CreateBookingRequest) error {
	if req.OwnerID == "" {
		return ErrInvalidOwnerID
	}
	if strings.TrimSpace(req.Address) == "" {
		return ErrInvalidAddress
	}
	if !(domain.Coordinate{Lat: req.Lat, Lng: req.Lng}).Valid() {
		return ErrInvalidLocation
	}
	if !req.Duration.Valid() {
		return ErrInvalidDuration
	}
	if _, err := time.Parse("2006-01-02", req.ScheduledDate); err != nil {
		return ErrInvalidSchedule
	}
	if _, err := time.Parse("15:04", req.ScheduledTime); err != nil {
		return ErrInvalidSchedule
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// LatestUnrated returns the owner's most recent booking without a rating,
// or nil when there is none.
func (s *BookingService) LatestUnrated(ctx context.Context, ownerID string) (*domain.Booking, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwnerID
	}
	b, err := s.bookingRepo.GetLatestUnratedByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// SubmitRating stores the owner's rating once the walk is completed and
// folds it into the walker's average.
func (s *BookingService) SubmitRating(ctx context.Context, bookingID, ownerID string, rating int, review string) (*domain.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if ownerID == "" {
		return nil, ErrInvalidOwnerID
	}

	var rated *domain.Booking
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return ErrNotBookingOwner
		}
		if b.IsRated() {
			return ErrBookingAlreadyRated
		}
		if b.Status != domain.BookingStatusCompleted {
			return ErrBookingNotCompleted
		}

		review = strings.TrimSpace(review)
		if err := tx.Bookings().SetRating(ctx, bookingID, rating, review); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrBookingAlreadyRated
			}
			return err
		}
		if err := tx.Walkers().RecordReview(ctx, b.WalkerID, rating); err != nil {
			return err
		}

		b.Rating = rating
		b.ReviewText = review
		rated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RatingsTotal.Inc()
	if s.walkers != nil {
		s.walkers.invalidate(ctx, rated.WalkerID)
	}
	s.out.bookingUpdated(ctx, rated)
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:       messages.WalkEventBookingRated,
		BookingID:  rated.ID,
		OwnerID:    rated.OwnerID,
		WalkerID:   rated.WalkerID,
		Status:     string(rated.Status),
		Rating:     rated.Rating,
		OccurredAt: time.Now(),
	})
	return rated, nil
}

// ListLocations returns the fixes of a booking in capture order.
func (s *BookingService) ListLocations(ctx context.Context, bookingID string) ([]*domain.LocationFix, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if _, err := s.bookingRepo.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.locationRepo.ListByBooking(ctx, bookingID)
}
