package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/broker/messages"
	"dogwalk/internal/domain"
	"dogwalk/internal/realtime"
	"dogwalk/internal/repository"
)

// TrackingService handles the walker location stream.
type TrackingService struct {
	bookingRepo  repository.BookingRepository
	locationRepo repository.LocationRepository
	positions    PositionCache
	out          broadcaster
}

// NewTrackingService creates a new TrackingService. positions may be nil.
func NewTrackingService(
	bookingRepo repository.BookingRepository,
	locationRepo repository.LocationRepository,
	positions PositionCache,
	feed realtime.Publisher,
	events EventSink,
	logger *slog.Logger,
) *TrackingService {
	return &TrackingService{
		bookingRepo:  bookingRepo,
		locationRepo: locationRepo,
		positions:    positions,
		out:          broadcaster{feed: feed, events: events, logger: logger},
	}
}

// AppendFixRequest contains one GPS sample from a walker.
type AppendFixRequest struct {
	BookingID  string
	WalkerID   string
	Lat        float64
	Lng        float64
	CapturedAt time.Time // Zero means now
}

// AppendFix records a fix for an active booking assigned to the walker and
// notifies live subscribers.
func (s *TrackingService) AppendFix(ctx context.Context, req AppendFixRequest) (*domain.LocationFix, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.WalkerID == "" {
		return nil, ErrInvalidWalkerID
	}
	if !(domain.Coordinate{Lat: req.Lat, Lng: req.Lng}).Valid() {
		return nil, ErrInvalidLocation
	}

	b, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.WalkerID != req.WalkerID {
		return nil, ErrWalkerNotAssigned
	}
	if !b.Status.IsActive() {
		return nil, ErrBookingNotActive
	}

	capturedAt := req.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	fix := &domain.LocationFix{
		ID:         uuid.New().String(),
		BookingID:  req.BookingID,
		WalkerID:   req.WalkerID,
		Lat:        req.Lat,
		Lng:        req.Lng,
		CapturedAt: capturedAt.UTC(),
	}
	if err := s.locationRepo.Append(ctx, fix); err != nil {
		// The walk finished between the read above and the insert.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrBookingNotActive
		}
		return nil, err
	}

	if s.positions != nil {
		if err := s.positions.UpdatePosition(ctx, fix.BookingID, fix.Lat, fix.Lng); err != nil {
			s.out.logger.Warn("update walk position", slog.String("booking_id", fix.BookingID), slog.String("error", err.Error()))
		}
	}

	s.out.locationInserted(ctx, fix)
	lat, lng := fix.Lat, fix.Lng
	s.out.walkEvent(ctx, messages.WalkEvent{
		Type:       messages.WalkEventLocationRecorded,
		BookingID:  fix.BookingID,
		OwnerID:    b.OwnerID,
		WalkerID:   fix.WalkerID,
		Lat:        &lat,
		Lng:        &lng,
		OccurredAt: fix.CapturedAt,
	})
	return fix, nil
}

// LatestPosition returns the walker's freshest position for a booking, or
// nil when no fix exists yet.
func (s *TrackingService) LatestPosition(ctx context.Context, bookingID string) (*domain.Coordinate, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	if s.positions != nil {
		pos, err := s.positions.Position(ctx, bookingID)
		if err == nil && pos != nil {
			return pos, nil
		}
		if err != nil {
			s.out.logger.Warn("read walk position", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		}
	}

	fix, err := s.locationRepo.Latest(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c := fix.Coordinate()
	return &c, nil
}
