// Package session implements the owner's live walk view: it follows the
// most recent unrated booking through its lifecycle, tracks the walker's
// position while the walk is active and collects the post-walk rating.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/realtime"
)

var (
	// ErrInvalidRating is returned without any network call when the
	// rating is outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNotCompleted is returned when rating a walk that has not finished.
	ErrNotCompleted = errors.New("walk is not completed yet")

	// ErrNoWalk is returned when the session has no booking to act on.
	ErrNoWalk = errors.New("no walk in progress")

	// ErrConcluded is returned once the session has been rated or closed.
	ErrConcluded = errors.New("session concluded")
)

// DefaultMapCenter is used when a booking carries no usable coordinate.
var DefaultMapCenter = domain.Coordinate{Lat: 6.2442, Lng: -75.5812}

// Phase is what the owner's screen shows.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseNoWalk     Phase = "no_walk"
	PhasePending    Phase = "pending"
	PhaseAccepted   Phase = "accepted"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseConcluded  Phase = "concluded"
)

func phaseOf(s domain.BookingStatus) Phase {
	switch s {
	case domain.BookingStatusPending:
		return PhasePending
	case domain.BookingStatusAccepted, domain.BookingStatusConfirmed:
		return PhaseAccepted
	case domain.BookingStatusInProgress:
		return PhaseInProgress
	case domain.BookingStatusCompleted:
		return PhaseCompleted
	default:
		return PhaseLoading
	}
}

// State is a snapshot of the session.
type State struct {
	Phase          Phase
	Booking        *domain.Booking
	Walker         *domain.WalkerProfile
	WalkerPosition *domain.Coordinate
	MapCenter      domain.Coordinate
}

func (st State) clone() State {
	out := st
	if st.Booking != nil {
		b := *st.Booking
		out.Booking = &b
	}
	if st.Walker != nil {
		w := *st.Walker
		out.Walker = &w
	}
	if st.WalkerPosition != nil {
		p := *st.WalkerPosition
		out.WalkerPosition = &p
	}
	return out
}

// BookingReader is the booking store as seen by the owner.
type BookingReader interface {
	LatestUnrated(ctx context.Context, ownerID string) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	SubmitRating(ctx context.Context, bookingID, ownerID string, rating int, review string) (*domain.Booking, error)
}

// WalkerDirectory resolves walker profiles.
type WalkerDirectory interface {
	Walker(ctx context.Context, walkerID string) (*domain.WalkerProfile, error)
}

// PositionLookup returns the freshest known walker position of a booking.
type PositionLookup interface {
	LatestPosition(ctx context.Context, bookingID string) (*domain.Coordinate, error)
}

// Deps are the collaborators of a session. Positions and OnChange are optional.
type Deps struct {
	Bookings  BookingReader
	Walkers   WalkerDirectory
	Positions PositionLookup
	Feed      realtime.Subscriber
	Logger    *slog.Logger

	// OnChange receives every new state from the session goroutine or from
	// SubmitRating. It must not call Close.
	OnChange func(State)
}

// Session is one owner's live walk view. Its subscriptions are owned by a
// single goroutine and released when the walk concludes, the context passed
// to Open is cancelled, or Close is called.
type Session struct {
	deps    Deps
	ownerID string
	logger  *slog.Logger

	mu    sync.Mutex
	state State

	emitMu sync.Mutex
	closed atomic.Bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	statusSub   *realtime.Subscription
	locationSub *realtime.Subscription
}

// Open starts a session for the owner. An empty owner id or an owner with
// no unrated booking yields a session in PhaseNoWalk that is already done.
func Open(ctx context.Context, deps Deps, ownerID string) (*Session, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		deps:    deps,
		ownerID: ownerID,
		logger:  logger.With(slog.String("owner_id", ownerID)),
		state:   State{Phase: PhaseLoading, MapCenter: DefaultMapCenter},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if ownerID == "" {
		s.terminal(PhaseNoWalk)
		return s, nil
	}

	b, err := deps.Bookings.LatestUnrated(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		s.terminal(PhaseNoWalk)
		return s, nil
	}

	s.statusSub, err = deps.Feed.Subscribe(ctx, realtime.Topic{Kind: realtime.KindBookingUpdated, Key: b.ID})
	if err != nil {
		return nil, err
	}

	// Re-read after subscribing so no update between the first read and the
	// subscription is lost.
	if fresh, err := deps.Bookings.GetBooking(ctx, b.ID); err == nil && b.Status.CanTransitionTo(fresh.Status) {
		b = fresh
	}

	s.state = State{
		Phase:     phaseOf(b.Status),
		Booking:   b,
		MapCenter: centerOf(b),
	}
	if b.WalkerID != "" {
		s.resolveWalker(ctx, b.WalkerID)
	}
	if b.Status.IsActive() {
		if err := s.openLocations(ctx); err != nil {
			s.statusSub.Close()
			return nil, err
		}
		s.loadPosition(ctx, b.ID)
	}

	observability.LiveSessionsActive.Inc()
	go s.run(ctx)
	s.emit()
	return s, nil
}

func centerOf(b *domain.Booking) domain.Coordinate {
	c := b.Coordinate()
	if !c.Valid() || (c.Lat == 0 && c.Lng == 0) {
		return DefaultMapCenter
	}
	return c
}

// terminal finishes a session that never subscribed to anything.
func (s *Session) terminal(phase Phase) {
	s.mu.Lock()
	s.state.Phase = phase
	s.mu.Unlock()
	s.emit()
	s.closed.Store(true)
	close(s.done)
}

func (s *Session) run(ctx context.Context) {
	defer s.exit()

	for {
		var statusC, locationC <-chan realtime.Event
		if s.statusSub != nil {
			statusC = s.statusSub.C
		}
		if s.locationSub != nil {
			locationC = s.locationSub.C
		}

		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case e, ok := <-statusC:
			if !ok {
				s.logger.Warn("booking update channel closed")
				s.statusSub = nil
				continue
			}
			if s.applyStatus(ctx, e) {
				return
			}
		case e, ok := <-locationC:
			if !ok {
				s.locationSub = nil
				continue
			}
			s.applyLocation(e)
		}
	}
}

// exit releases both channels. After it returns no callback runs.
func (s *Session) exit() {
	s.emitMu.Lock()
	s.closed.Store(true)
	s.emitMu.Unlock()

	if s.locationSub != nil {
		s.locationSub.Close()
		s.locationSub = nil
	}
	if s.statusSub != nil {
		s.statusSub.Close()
		s.statusSub = nil
	}
	observability.LiveSessionsActive.Dec()
	close(s.done)
}

// applyStatus reduces one booking update. It reports whether the session
// has concluded.
func (s *Session) applyStatus(ctx context.Context, e realtime.Event) bool {
	u, err := realtime.DecodeBookingUpdate(e)
	if err != nil {
		observability.MalformedEventsTotal.Inc()
		s.logger.Warn("dropping booking update", slog.String("error", err.Error()))
		return false
	}

	s.mu.Lock()
	b := s.state.Booking
	if s.state.Phase == PhaseConcluded || b == nil || u.BookingID != b.ID {
		s.mu.Unlock()
		return false
	}
	if u.Status != b.Status && !b.Status.CanTransitionTo(u.Status) {
		s.mu.Unlock()
		s.logger.Warn("ignoring backward status update",
			slog.String("booking_id", u.BookingID),
			slog.String("current", string(b.Status)),
			slog.String("received", string(u.Status)))
		return false
	}

	b.Status = u.Status
	newWalker := u.WalkerID != "" && u.WalkerID != b.WalkerID
	if u.WalkerID != "" {
		b.WalkerID = u.WalkerID
	}
	concluded := u.Rating > 0
	if concluded {
		b.Rating = u.Rating
		s.state.Phase = PhaseConcluded
	} else {
		s.state.Phase = phaseOf(b.Status)
	}
	bookingID := b.ID
	s.mu.Unlock()

	if newWalker {
		s.resolveWalker(ctx, u.WalkerID)
	}

	switch {
	case u.Status.IsActive() && s.locationSub == nil:
		if err := s.openLocations(ctx); err != nil {
			s.logger.Warn("subscribing to walker locations", slog.String("error", err.Error()))
		} else {
			s.loadPosition(ctx, bookingID)
		}
	case !u.Status.IsActive() && s.locationSub != nil:
		s.locationSub.Close()
		s.locationSub = nil
	}

	s.emit()
	return concluded
}

func (s *Session) applyLocation(e realtime.Event) {
	l, err := realtime.DecodeLocationInsert(e)
	if err != nil {
		observability.MalformedEventsTotal.Inc()
		s.logger.Warn("dropping location insert", slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	b := s.state.Booking
	if b == nil || !b.Status.IsActive() {
		s.mu.Unlock()
		return
	}
	if l.WalkerID != "" && b.WalkerID != "" && l.WalkerID != b.WalkerID {
		s.mu.Unlock()
		s.logger.Warn("dropping fix from unassigned walker",
			slog.String("booking_id", b.ID),
			slog.String("walker_id", l.WalkerID))
		return
	}
	pos := l.Coordinate()
	s.state.WalkerPosition = &pos
	s.state.MapCenter = pos
	s.mu.Unlock()

	s.emit()
}

func (s *Session) openLocations(ctx context.Context) error {
	s.mu.Lock()
	bookingID := s.state.Booking.ID
	s.mu.Unlock()

	sub, err := s.deps.Feed.Subscribe(ctx, realtime.Topic{Kind: realtime.KindLocationInserted, Key: bookingID})
	if err != nil {
		return err
	}
	s.locationSub = sub
	return nil
}

func (s *Session) loadPosition(ctx context.Context, bookingID string) {
	if s.deps.Positions == nil {
		return
	}
	pos, err := s.deps.Positions.LatestPosition(ctx, bookingID)
	if err != nil {
		s.logger.Warn("loading walker position", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		return
	}
	if pos == nil {
		return
	}
	s.mu.Lock()
	if s.state.WalkerPosition == nil {
		s.state.WalkerPosition = pos
		s.state.MapCenter = *pos
	}
	s.mu.Unlock()
}

func (s *Session) resolveWalker(ctx context.Context, walkerID string) {
	if s.deps.Walkers == nil {
		return
	}
	w, err := s.deps.Walkers.Walker(ctx, walkerID)
	if err != nil {
		s.logger.Warn("resolving walker profile", slog.String("walker_id", walkerID), slog.String("error", err.Error()))
		return
	}
	s.mu.Lock()
	s.state.Walker = w
	s.mu.Unlock()
}

func (s *Session) emit() {
	if s.deps.OnChange == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed.Load() {
		return
	}
	s.deps.OnChange(s.State())
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Done is closed once the session has released its subscriptions.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SubmitRating rates the completed walk. On success the session concludes
// and closes; on failure the state is unchanged and the call may be retried.
func (s *Session) SubmitRating(ctx context.Context, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	phase := s.state.Phase
	var bookingID string
	if s.state.Booking != nil {
		bookingID = s.state.Booking.ID
	}
	s.mu.Unlock()

	switch {
	case phase == PhaseConcluded || s.closed.Load():
		return ErrConcluded
	case bookingID == "":
		return ErrNoWalk
	case phase != PhaseCompleted:
		return ErrNotCompleted
	}

	rated, err := s.deps.Bookings.SubmitRating(ctx, bookingID, s.ownerID, rating, review)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.Booking != nil {
		s.state.Booking.Rating = rated.Rating
		s.state.Booking.ReviewText = rated.ReviewText
	}
	s.state.Phase = PhaseConcluded
	s.mu.Unlock()

	s.emit()
	s.Close()
	return nil
}

// Close releases both channels and waits for the session goroutine. No
// OnChange callback runs after Close returns. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
