package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

func seedBooking(t *testing.T, s *Store, id, owner string, created time.Time) {
	t.Helper()
	require.NoError(t, s.Bookings().Create(context.Background(), &domain.Booking{
		ID:         id,
		OwnerID:    owner,
		Duration:   domain.WalkDurationMedium,
		TotalPrice: domain.WalkDurationMedium.Price(),
		Status:     domain.BookingStatusPending,
		CreatedAt:  created,
	}))
}

func TestAccept_ConcurrentCallersExactlyOneWins(t *testing.T) {
	s := NewStore()
	seedBooking(t, s, "b1", "o1", time.Now())

	var wg sync.WaitGroup
	results := make(chan string, 2)
	for _, walker := range []string{"w1", "w2"} {
		wg.Add(1)
		go func(walker string) {
			defer wg.Done()
			ok, err := s.Bookings().Accept(context.Background(), "b1", walker)
			assert.NoError(t, err)
			if ok {
				results <- walker
			}
		}(walker)
	}
	wg.Wait()
	close(results)

	var winners []string
	for w := range results {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	b, err := s.Bookings().GetByID(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, winners[0], b.WalkerID)
	require.Equal(t, domain.BookingStatusAccepted, b.Status)
}

func TestGetLatestUnratedByOwner_SkipsRated(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	seedBooking(t, s, "old", "o1", now.Add(-2*time.Hour))
	seedBooking(t, s, "new", "o1", now.Add(-time.Hour))
	seedBooking(t, s, "other", "o2", now)

	b, err := s.Bookings().GetLatestUnratedByOwner(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "new", b.ID)

	ok, err := s.Bookings().Accept(ctx, "new", "w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Bookings().TransitionStatus(ctx, "new", "w1",
		[]domain.BookingStatus{domain.BookingStatusAccepted}, domain.BookingStatusCompleted))
	require.NoError(t, s.Bookings().SetRating(ctx, "new", 5, "great"))

	b, err = s.Bookings().GetLatestUnratedByOwner(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "old", b.ID)
	require.False(t, b.IsRated())
}

func TestSetRating_OnlyOnceAndOnlyWhenCompleted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBooking(t, s, "b1", "o1", time.Now())

	require.ErrorIs(t, s.Bookings().SetRating(ctx, "b1", 4, ""), repository.ErrConflict)

	_, err := s.Bookings().Accept(ctx, "b1", "w1")
	require.NoError(t, err)
	require.NoError(t, s.Bookings().TransitionStatus(ctx, "b1", "w1",
		[]domain.BookingStatus{domain.BookingStatusAccepted}, domain.BookingStatusCompleted))

	require.NoError(t, s.Bookings().SetRating(ctx, "b1", 4, ""))
	require.ErrorIs(t, s.Bookings().SetRating(ctx, "b1", 5, ""), repository.ErrConflict)
}

func TestTransitionStatus_RejectsBackwardsAndForeignWalker(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBooking(t, s, "b1", "o1", time.Now())
	_, err := s.Bookings().Accept(ctx, "b1", "w1")
	require.NoError(t, err)

	err = s.Bookings().TransitionStatus(ctx, "b1", "w2",
		[]domain.BookingStatus{domain.BookingStatusAccepted}, domain.BookingStatusInProgress)
	require.ErrorIs(t, err, repository.ErrConflict)

	err = s.Bookings().TransitionStatus(ctx, "b1", "w1",
		[]domain.BookingStatus{domain.BookingStatusAccepted}, domain.BookingStatusPending)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Walkers().Create(ctx, &domain.WalkerProfile{ID: "w1", Name: "Ana"}))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.Walkers().AddBalance(ctx, "w1", 1000))
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := s.Walkers().GetByID(ctx, "w1")
	require.NoError(t, err)
	require.Zero(t, w.Balance)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Walkers().AddBalance(ctx, "w1", 1000)
	}))
	w, err = s.Walkers().GetByID(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, int64(1000), w.Balance)
}

func TestLocations_LatestByCaptureTime(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	seedBooking(t, s, "b1", "o1", now)
	_, err := s.Bookings().Accept(ctx, "b1", "w1")
	require.NoError(t, err)

	require.NoError(t, s.Locations().Append(ctx, &domain.LocationFix{ID: "f2", BookingID: "b1", WalkerID: "w1", Lat: 6.30, Lng: -75.59, CapturedAt: now}))
	require.NoError(t, s.Locations().Append(ctx, &domain.LocationFix{ID: "f1", BookingID: "b1", WalkerID: "w1", Lat: 6.24, Lng: -75.58, CapturedAt: now.Add(-time.Minute)}))

	latest, err := s.Locations().Latest(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "f2", latest.ID)

	all, err := s.Locations().ListByBooking(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "f1", all[0].ID)

	_, err = s.Locations().Latest(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLocations_AppendOnlyWhileActiveForWalker(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBooking(t, s, "b1", "o1", time.Now())
	fix := func(id, walker string) *domain.LocationFix {
		return &domain.LocationFix{ID: id, BookingID: "b1", WalkerID: walker, Lat: 6.24, Lng: -75.58, CapturedAt: time.Now()}
	}

	require.ErrorIs(t, s.Locations().Append(ctx, fix("f0", "w1")), repository.ErrConflict)

	_, err := s.Bookings().Accept(ctx, "b1", "w1")
	require.NoError(t, err)
	require.ErrorIs(t, s.Locations().Append(ctx, fix("f1", "w2")), repository.ErrConflict)
	require.NoError(t, s.Locations().Append(ctx, fix("f2", "w1")))

	require.NoError(t, s.Bookings().TransitionStatus(ctx, "b1", "w1",
		[]domain.BookingStatus{domain.BookingStatusAccepted}, domain.BookingStatusCompleted))
	require.ErrorIs(t, s.Locations().Append(ctx, fix("f3", "w1")), repository.ErrConflict)

	all, err := s.Locations().ListByBooking(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "f2", all[0].ID)

	require.ErrorIs(t, s.Locations().Append(ctx, &domain.LocationFix{ID: "f4", BookingID: "missing"}), repository.ErrConflict)
}

func TestConversations_PairIsUniqueAndMessagesBumpRecency(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := s.Conversations()

	require.NoError(t, repo.Create(ctx, &domain.Conversation{ID: "c1", OwnerID: "o1", WalkerID: "w1", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.Conversation{ID: "c2", OwnerID: "o1", WalkerID: "w2", CreatedAt: base, UpdatedAt: base.Add(time.Minute)}))
	require.ErrorIs(t, repo.Create(ctx, &domain.Conversation{ID: "c3", OwnerID: "o1", WalkerID: "w1"}), repository.ErrDuplicate)

	got, err := repo.GetByParticipants(ctx, "o1", "w1")
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)

	list, err := repo.ListByUser(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c2", list[0].ID)

	require.NoError(t, repo.AppendMessage(ctx, &domain.Message{ID: "m2", ConversationID: "c1", SenderID: "w1", ReceiverID: "o1", Text: "on my way", CreatedAt: base.Add(3 * time.Minute)}))
	require.NoError(t, repo.AppendMessage(ctx, &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "o1", ReceiverID: "w1", Text: "hi", CreatedAt: base.Add(2 * time.Minute)}))
	require.ErrorIs(t, repo.AppendMessage(ctx, &domain.Message{ID: "m3", ConversationID: "missing"}), repository.ErrNotFound)

	list, err = repo.ListByUser(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "c1", list[0].ID)

	msgs, err := repo.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)

	walkerList, err := repo.ListByUser(ctx, "w2")
	require.NoError(t, err)
	require.Len(t, walkerList, 1)
}
