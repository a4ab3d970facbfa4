package walk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dogwalk/internal/domain"
	"dogwalk/internal/logging"
	"dogwalk/internal/service"
)

type fakeBackend struct {
	mu          sync.Mutex
	acceptOK    bool
	active      []*domain.Booking
	claimable   []*domain.Booking
	claimLoads  int
	finishCalls int
}

func (f *fakeBackend) AcceptBooking(ctx context.Context, bookingID, walkerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.acceptOK {
		return false, nil
	}
	f.active = append(f.active, &domain.Booking{ID: bookingID, WalkerID: walkerID, Status: domain.BookingStatusAccepted, TotalPrice: 55000})
	return true, nil
}

func (f *fakeBackend) ClaimableBookings(ctx context.Context, limit int) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimLoads++
	return cloneBookings(f.claimable), nil
}

func (f *fakeBackend) ActiveBookings(ctx context.Context, walkerID string) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneBookings(f.active), nil
}

func (f *fakeBackend) StartWalk(ctx context.Context, bookingID, walkerID string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.active {
		if b.ID == bookingID {
			b.Status = domain.BookingStatusInProgress
			out := *b
			return &out, nil
		}
	}
	return nil, service.ErrBookingNotActive
}

func (f *fakeBackend) FinishWalk(ctx context.Context, bookingID, walkerID string) (*service.FinishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishCalls++
	f.active = removeBooking(f.active, bookingID)
	return &service.FinishResult{
		Booking:     &domain.Booking{ID: bookingID, Status: domain.BookingStatusCompleted},
		Transaction: &domain.Transaction{BookingID: bookingID, Amount: 55000, GatewayFee: 2200, PlatformFee: 11000, NetEarning: 41800},
	}, nil
}

type fakeFixes struct {
	mu   sync.Mutex
	fail bool
	sent []service.AppendFixRequest
	seen chan struct{}
}

func newFakeFixes() *fakeFixes {
	return &fakeFixes{seen: make(chan struct{}, 64)}
}

func (f *fakeFixes) AppendFix(ctx context.Context, req service.AppendFixRequest) (*domain.LocationFix, error) {
	f.mu.Lock()
	defer func() {
		f.mu.Unlock()
		f.seen <- struct{}{}
	}()
	if f.fail {
		return nil, errors.New("write failed")
	}
	f.sent = append(f.sent, req)
	return &domain.LocationFix{BookingID: req.BookingID, WalkerID: req.WalkerID, Lat: req.Lat, Lng: req.Lng}, nil
}

func (f *fakeFixes) requests() []service.AppendFixRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.AppendFixRequest(nil), f.sent...)
}

func (f *fakeFixes) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for fix %d", i+1)
		}
	}
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *fakePresence) SetOnline(ctx context.Context, walkerID string, online bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[walkerID] = online
	return nil
}

func (p *fakePresence) IsOnline(ctx context.Context, walkerID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[walkerID], nil
}

func newController(t *testing.T, backend *fakeBackend, fixes *fakeFixes) *Controller {
	t.Helper()
	c := NewController("w1", Deps{
		Backend:  backend,
		Fixes:    fixes,
		Presence: &fakePresence{online: make(map[string]bool)},
		Logger:   logging.Discard(),
	})
	t.Cleanup(c.Close)
	return c
}

// base is in Medellin; north(m) is roughly m meters north of it.
var base = domain.Coordinate{Lat: 6.2442, Lng: -75.5812}

func north(meters float64) domain.Coordinate {
	return domain.Coordinate{Lat: base.Lat + meters/111_195, Lng: base.Lng}
}

func TestAccept_TakenRefreshesClaimable(t *testing.T) {
	backend := &fakeBackend{claimable: []*domain.Booking{{ID: "b2", Status: domain.BookingStatusPending}}}
	c := newController(t, backend, newFakeFixes())

	err := c.Accept(context.Background(), "b1")
	require.ErrorIs(t, err, ErrBookingTaken)
	require.Equal(t, "booking already taken by another walker", err.Error())
	require.Equal(t, 1, backend.claimLoads)
	require.Len(t, c.Claimable(), 1)
	require.Empty(t, c.Active())
}

func TestAccept_SuccessLoadsActive(t *testing.T) {
	backend := &fakeBackend{acceptOK: true}
	c := newController(t, backend, newFakeFixes())

	require.NoError(t, c.Accept(context.Background(), "b1"))
	active := c.Active()
	require.Len(t, active, 1)
	require.Equal(t, "b1", active[0].ID)
}

func TestRelay_RequiresOnlineActiveAndSource(t *testing.T) {
	backend := &fakeBackend{acceptOK: true}
	c := newController(t, backend, newFakeFixes())
	ctx := context.Background()
	src := make(chan domain.Coordinate)

	c.AttachSource(src)
	require.False(t, c.Relaying())

	require.NoError(t, c.SetOnline(ctx, true))
	require.False(t, c.Relaying())

	require.NoError(t, c.Accept(ctx, "b1"))
	require.True(t, c.Relaying())

	require.NoError(t, c.SetOnline(ctx, false))
	require.False(t, c.Relaying())

	require.NoError(t, c.SetOnline(ctx, true))
	require.True(t, c.Relaying())

	c.DetachSource(src)
	require.False(t, c.Relaying())
}

func TestRelay_SendsFirstFixThenOnlyMovesOverThreshold(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{
		{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusInProgress, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: "b2", WalkerID: "w1", Status: domain.BookingStatusAccepted, CreatedAt: time.Now()},
	}}
	fixes := newFakeFixes()
	c := newController(t, backend, fixes)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetOnline(ctx, true))
	src := make(chan domain.Coordinate)
	c.AttachSource(src)

	src <- base
	fixes.wait(t, 1)
	src <- north(5)
	src <- north(14)
	src <- north(20)
	fixes.wait(t, 1)

	sent := fixes.requests()
	require.Len(t, sent, 2)
	require.Equal(t, "b1", sent[0].BookingID)
	require.Equal(t, "w1", sent[0].WalkerID)
	require.InDelta(t, base.Lat, sent[0].Lat, 1e-9)
	require.InDelta(t, north(20).Lat, sent[1].Lat, 1e-9)
}

func TestRelay_FailedWritesAreDropped(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusAccepted}}}
	fixes := newFakeFixes()
	fixes.fail = true
	c := newController(t, backend, fixes)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetOnline(ctx, true))
	src := make(chan domain.Coordinate)
	c.AttachSource(src)

	src <- base
	fixes.wait(t, 1)
	require.True(t, c.Relaying())
	require.Empty(t, fixes.requests())
}

func TestRelay_StopsWhenLastWalkFinishes(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusInProgress}}}
	fixes := newFakeFixes()
	c := newController(t, backend, fixes)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetOnline(ctx, true))
	c.AttachSource(make(chan domain.Coordinate))
	require.True(t, c.Relaying())

	res, err := c.Finish(ctx, "b1", func(context.Context, *domain.Booking) bool { return true })
	require.NoError(t, err)
	require.Equal(t, int64(41800), res.Transaction.NetEarning)
	require.False(t, c.Relaying())
	require.Empty(t, c.Active())
}

func TestRelay_SourceClosedStopsRelay(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusAccepted}}}
	c := newController(t, backend, newFakeFixes())
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetOnline(ctx, true))
	src := make(chan domain.Coordinate)
	c.AttachSource(src)
	require.True(t, c.Relaying())

	close(src)
	require.Eventually(t, func() bool { return !c.Relaying() }, time.Second, 10*time.Millisecond)
}

func TestFinish_RequiresConfirmation(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusInProgress}}}
	c := newController(t, backend, newFakeFixes())
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	_, err := c.Finish(ctx, "b1", func(context.Context, *domain.Booking) bool { return false })
	require.ErrorIs(t, err, ErrNotConfirmed)
	_, err = c.Finish(ctx, "b1", nil)
	require.ErrorIs(t, err, ErrNotConfirmed)
	require.Zero(t, backend.finishCalls)
	require.Len(t, c.Active(), 1)

	_, err = c.Finish(ctx, "missing", func(context.Context, *domain.Booking) bool { return true })
	require.ErrorIs(t, err, ErrNotActive)
}

func TestStart_UpdatesActiveStatus(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusAccepted}}}
	c := newController(t, backend, newFakeFixes())
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	b, err := c.Start(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, domain.BookingStatusInProgress, b.Status)
	require.Equal(t, domain.BookingStatusInProgress, c.Active()[0].Status)
}

func TestClose_StopsRelayAndRejectsCalls(t *testing.T) {
	backend := &fakeBackend{acceptOK: true, active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusAccepted}}}
	fixes := newFakeFixes()
	c := newController(t, backend, fixes)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetOnline(ctx, true))
	src := make(chan domain.Coordinate, 1)
	c.AttachSource(src)

	c.Close()
	require.False(t, c.Relaying())
	src <- base
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, fixes.requests())

	require.ErrorIs(t, c.Accept(ctx, "b2"), ErrClosed)
}

func TestRegistry_OneControllerPerWalker(t *testing.T) {
	r := NewRegistry(Deps{Backend: &fakeBackend{}, Fixes: newFakeFixes(), Logger: logging.Discard()})
	defer r.Close()

	a, releaseA := r.Acquire("w1")
	again, releaseAgain := r.Acquire("w1")
	require.Same(t, a, again)
	b, releaseB := r.Acquire("w2")
	require.NotSame(t, a, b)
	require.Equal(t, "w2", b.WalkerID())
	require.Equal(t, 2, r.Len())

	releaseA()
	releaseA()
	require.Equal(t, 2, r.Len())
	releaseAgain()
	releaseB()
	require.Zero(t, r.Len())
}

func TestRegistry_KeepsRelayingControllerUntilSourceDetached(t *testing.T) {
	backend := &fakeBackend{active: []*domain.Booking{{ID: "b1", WalkerID: "w1", Status: domain.BookingStatusAccepted}}}
	presence := &fakePresence{online: map[string]bool{"w1": true}}
	r := NewRegistry(Deps{Backend: backend, Fixes: newFakeFixes(), Presence: presence, Logger: logging.Discard()})
	defer r.Close()
	ctx := context.Background()

	gps, releaseGPS := r.Acquire("w1")
	require.NoError(t, gps.Refresh(ctx))
	src := make(chan domain.Coordinate)
	gps.AttachSource(src)
	require.True(t, gps.Relaying())

	req, releaseReq := r.Acquire("w1")
	require.Same(t, gps, req)
	releaseReq()
	require.Equal(t, 1, r.Len())

	gps.DetachSource(src)
	releaseGPS()
	require.Zero(t, r.Len())
	require.True(t, presence.online["w1"])
}

func TestRegistry_FreshControllerResumesStoredPresence(t *testing.T) {
	backend := &fakeBackend{acceptOK: true}
	presence := &fakePresence{online: make(map[string]bool)}
	deps := Deps{Backend: backend, Fixes: newFakeFixes(), Presence: presence, Logger: logging.Discard()}
	ctx := context.Background()

	first := NewRegistry(deps)
	c, release := first.Acquire("w1")
	require.NoError(t, c.SetOnline(ctx, true))
	require.NoError(t, c.Accept(ctx, "b1"))
	release()
	first.Close()

	second := NewRegistry(deps)
	defer second.Close()
	fresh, release := second.Acquire("w1")
	defer release()
	require.False(t, fresh.Online())

	require.NoError(t, fresh.Refresh(ctx))
	require.True(t, fresh.Online())
	require.Len(t, fresh.Active(), 1)

	fresh.AttachSource(make(chan domain.Coordinate))
	require.True(t, fresh.Relaying())
}
