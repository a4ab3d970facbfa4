package redis

import (
	"context"
	"time"

	"dogwalk/internal/domain"
	"dogwalk/internal/realtime"
)

// PositionStoreInterface defines the interface for latest walker position operations.
type PositionStoreInterface interface {
	UpdatePosition(ctx context.Context, bookingID string, lat, lng float64) error
	Position(ctx context.Context, bookingID string) (*domain.Coordinate, error)
	RemovePosition(ctx context.Context, bookingID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// CacheStoreInterface defines the interface for walker profile caching and presence.
type CacheStoreInterface interface {
	GetWalker(ctx context.Context, walkerID string) (*CachedWalker, error)
	SetWalker(ctx context.Context, walker *CachedWalker) error
	InvalidateWalker(ctx context.Context, walkerID string) error
	SetWalkerOnline(ctx context.Context, walkerID string, online bool) error
	IsWalkerOnline(ctx context.Context, walkerID string) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ PositionStoreInterface = (*PositionStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
	_ realtime.Feed          = (*PubSubFeed)(nil)
)
