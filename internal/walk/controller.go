// Package walk drives the walker side of a walk: claiming bookings, relaying
// GPS while a walk is active, and starting and finishing walks.
package walk

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/service"
)

var (
	ErrBookingTaken = errors.New("booking already taken by another walker")
	ErrNotConfirmed = errors.New("finish not confirmed")
	ErrNotActive    = errors.New("booking is not active for this walker")
	ErrClosed       = errors.New("walk controller closed")
)

// DefaultClaimableLimit caps the claimable list.
const DefaultClaimableLimit = 50

// Backend is the booking store as seen by a walker.
type Backend interface {
	AcceptBooking(ctx context.Context, bookingID, walkerID string) (bool, error)
	ClaimableBookings(ctx context.Context, limit int) ([]*domain.Booking, error)
	ActiveBookings(ctx context.Context, walkerID string) ([]*domain.Booking, error)
	StartWalk(ctx context.Context, bookingID, walkerID string) (*domain.Booking, error)
	FinishWalk(ctx context.Context, bookingID, walkerID string) (*service.FinishResult, error)
}

// FixWriter appends location fixes.
type FixWriter interface {
	AppendFix(ctx context.Context, req service.AppendFixRequest) (*domain.LocationFix, error)
}

// Presence stores whether a walker is online. It is the source of truth a
// fresh controller seeds its flag from.
type Presence interface {
	SetOnline(ctx context.Context, walkerID string, online bool) error
	IsOnline(ctx context.Context, walkerID string) (bool, error)
}

// ConfirmFunc asks the walker to confirm finishing the booking.
type ConfirmFunc func(ctx context.Context, b *domain.Booking) bool

// Deps are the collaborators of a controller. Presence is optional.
type Deps struct {
	Backend        Backend
	Fixes          FixWriter
	Presence       Presence
	Logger         *slog.Logger
	ClaimableLimit int
}

type relayHandle struct {
	src    <-chan domain.Coordinate
	cancel context.CancelFunc
}

// Controller holds one walker's view of their bookings and owns the GPS relay.
type Controller struct {
	walkerID string
	deps     Deps
	logger   *slog.Logger

	mu        sync.Mutex
	online    bool
	closed    bool
	active    []*domain.Booking // oldest first
	claimable []*domain.Booking
	source    <-chan domain.Coordinate
	relay     *relayHandle

	wg sync.WaitGroup
}

// NewController creates a controller for the walker.
func NewController(walkerID string, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ClaimableLimit <= 0 {
		deps.ClaimableLimit = DefaultClaimableLimit
	}
	return &Controller{
		walkerID: walkerID,
		deps:     deps,
		logger:   deps.Logger.With(slog.String("walker_id", walkerID)),
	}
}

// WalkerID returns the walker the controller acts for.
func (c *Controller) WalkerID() string {
	return c.walkerID
}

// Refresh reloads the presence flag and the active and claimable booking
// lists.
func (c *Controller) Refresh(ctx context.Context) error {
	c.refreshPresence(ctx)
	if err := c.refreshActive(ctx); err != nil {
		return err
	}
	return c.refreshClaimable(ctx)
}

// refreshPresence keeps the current flag when the store cannot be read.
func (c *Controller) refreshPresence(ctx context.Context) {
	if c.deps.Presence == nil {
		return
	}
	online, err := c.deps.Presence.IsOnline(ctx, c.walkerID)
	if err != nil {
		c.logger.Warn("reading walker presence", slog.String("error", err.Error()))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.setOnlineLocked(online)
	}
}

func (c *Controller) refreshActive(ctx context.Context) error {
	active, err := c.deps.Backend.ActiveBookings(ctx, c.walkerID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.active = active
	c.reconcileLocked()
	c.mu.Unlock()
	return nil
}

func (c *Controller) refreshClaimable(ctx context.Context) error {
	claimable, err := c.deps.Backend.ClaimableBookings(ctx, c.deps.ClaimableLimit)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.claimable = claimable
	c.mu.Unlock()
	return nil
}

// Active returns the walker's active bookings, oldest first.
func (c *Controller) Active() []*domain.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneBookings(c.active)
}

// Claimable returns the last loaded list of unassigned bookings.
func (c *Controller) Claimable() []*domain.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneBookings(c.claimable)
}

// Accept claims a pending booking. When another walker won the race it
// returns ErrBookingTaken and refreshes the claimable list; it never retries.
func (c *Controller) Accept(ctx context.Context, bookingID string) error {
	if c.isClosed() {
		return ErrClosed
	}

	ok, err := c.deps.Backend.AcceptBooking(ctx, bookingID, c.walkerID)
	if err != nil {
		return err
	}
	if !ok {
		if err := c.refreshClaimable(ctx); err != nil {
			c.logger.Warn("refreshing claimable bookings", slog.String("error", err.Error()))
		}
		return ErrBookingTaken
	}

	c.logger.Info("booking accepted", slog.String("booking_id", bookingID))
	return c.Refresh(ctx)
}

// SetOnline toggles the walker's availability. Going offline stops the relay.
func (c *Controller) SetOnline(ctx context.Context, online bool) error {
	if c.isClosed() {
		return ErrClosed
	}
	if c.deps.Presence != nil {
		if err := c.deps.Presence.SetOnline(ctx, c.walkerID, online); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setOnlineLocked(online)
	return nil
}

func (c *Controller) setOnlineLocked(online bool) {
	if c.online != online {
		if online {
			observability.WalkersOnline.Inc()
		} else {
			observability.WalkersOnline.Dec()
		}
	}
	c.online = online
	c.reconcileLocked()
}

// Online reports whether the walker is online.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// AttachSource sets the device position stream, replacing any previous one.
// The relay stops when src is closed.
func (c *Controller) AttachSource(src <-chan domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = src
	c.reconcileLocked()
}

// DetachSource removes src if it is still the attached stream.
func (c *Controller) DetachSource(src <-chan domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == src {
		c.source = nil
		c.reconcileLocked()
	}
}

// Relaying reports whether the GPS relay is running.
func (c *Controller) Relaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relay != nil
}

// Start begins an accepted walk.
func (c *Controller) Start(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	b, err := c.deps.Backend.StartWalk(ctx, bookingID, c.walkerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, a := range c.active {
		if a.ID == b.ID {
			c.active[i] = b
		}
	}
	c.mu.Unlock()
	return b, nil
}

// Finish completes an active walk after the walker confirms. Declining
// returns ErrNotConfirmed and changes nothing.
func (c *Controller) Finish(ctx context.Context, bookingID string, confirm ConfirmFunc) (*service.FinishResult, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	b := c.findActive(bookingID)
	if b == nil {
		if err := c.refreshActive(ctx); err != nil {
			return nil, err
		}
		if b = c.findActive(bookingID); b == nil {
			return nil, ErrNotActive
		}
	}

	if confirm == nil || !confirm(ctx, b) {
		return nil, ErrNotConfirmed
	}

	res, err := c.deps.Backend.FinishWalk(ctx, bookingID, c.walkerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.active = removeBooking(c.active, bookingID)
	c.reconcileLocked()
	c.mu.Unlock()

	c.logger.Info("walk finished",
		slog.String("booking_id", bookingID),
		slog.Int64("net_earning", res.Transaction.NetEarning))
	return res, nil
}

// Close stops the relay and waits for it to exit. No fix is sent after
// Close returns. The stored presence flag is left as is, so a controller
// created later for the same walker starts online again.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		if c.online {
			observability.WalkersOnline.Dec()
			c.online = false
		}
		c.reconcileLocked()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// idle reports whether nothing but reloadable state is held.
func (c *Controller) idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source == nil && c.relay == nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) findActive(bookingID string) *domain.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.active {
		if b.ID == bookingID && b.Status.IsActive() {
			out := *b
			return &out
		}
	}
	return nil
}

// reconcileLocked runs the relay iff the walker is online, has an active
// booking and a position source is attached.
func (c *Controller) reconcileLocked() {
	want := !c.closed && c.online && c.source != nil && c.relayTargetLocked() != ""

	if c.relay != nil && (!want || c.relay.src != c.source) {
		c.relay.cancel()
		c.relay = nil
	}
	if want && c.relay == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.relay = &relayHandle{src: c.source, cancel: cancel}
		c.wg.Add(1)
		go c.runRelay(ctx, c.source)
	}
}

func (c *Controller) relayTargetLocked() string {
	for _, b := range c.active {
		if b.Status.IsActive() {
			return b.ID
		}
	}
	return ""
}

func cloneBookings(in []*domain.Booking) []*domain.Booking {
	out := make([]*domain.Booking, 0, len(in))
	for _, b := range in {
		cp := *b
		out = append(out, &cp)
	}
	return out
}

func removeBooking(in []*domain.Booking, bookingID string) []*domain.Booking {
	out := in[:0]
	for _, b := range in {
		if b.ID != bookingID {
			out = append(out, b)
		}
	}
	return out
}
