// Package memory provides in-process implementations of the repository
// interfaces. They back STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// Store holds all tables behind a single mutex. A unit of work holds the
// mutex for its whole duration and restores a snapshot when it fails.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	owners       map[string]domain.Owner
	walkers      map[string]domain.WalkerProfile
	bookings     map[string]domain.Booking
	locations    map[string][]domain.LocationFix
	transactions map[string]domain.Transaction // keyed by booking id

	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message // keyed by conversation id
}

func newState() *state {
	return &state{
		owners:       make(map[string]domain.Owner),
		walkers:      make(map[string]domain.WalkerProfile),
		bookings:     make(map[string]domain.Booking),
		locations:    make(map[string][]domain.LocationFix),
		transactions: make(map[string]domain.Transaction),

		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.owners {
		c.owners[k] = v
	}
	for k, v := range s.walkers {
		c.walkers[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.locations {
		c.locations[k] = append([]domain.LocationFix(nil), v...)
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.conversations {
		c.conversations[k] = v
	}
	for k, v := range s.messages {
		c.messages[k] = append([]domain.Message(nil), v...)
	}
	return c
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

var _ repository.Transactor = (*Store)(nil)

// view runs operations against the store, taking the lock unless it is
// already held by an enclosing unit of work.
type view struct {
	s    *Store
	inTx bool
}

func (v view) do(fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.st)
}

// Bookings returns the booking repository.
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{v: view{s: s}}
}

// Locations returns the location repository.
func (s *Store) Locations() *LocationRepository {
	return &LocationRepository{v: view{s: s}}
}

// Walkers returns the walker repository.
func (s *Store) Walkers() *WalkerRepository {
	return &WalkerRepository{v: view{s: s}}
}

// Owners returns the owner repository.
func (s *Store) Owners() *OwnerRepository {
	return &OwnerRepository{v: view{s: s}}
}

// Transactions returns the transaction repository.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{v: view{s: s}}
}

// Conversations returns the conversation repository.
func (s *Store) Conversations() *ConversationRepository {
	return &ConversationRepository{v: view{s: s}}
}

type txRepos struct {
	v view
}

func (t txRepos) Bookings() repository.BookingRepository {
	return &BookingRepository{v: t.v}
}

func (t txRepos) Transactions() repository.TransactionRepository {
	return &TransactionRepository{v: t.v}
}

func (t txRepos) Walkers() repository.WalkerRepository {
	return &WalkerRepository{v: t.v}
}

// WithinTx runs fn with exclusive access to the store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, txRepos{v: view{s: s, inTx: true}}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}
