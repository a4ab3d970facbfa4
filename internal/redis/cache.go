package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Cache TTL constants
const (
	WalkerCacheTTL = 5 * time.Minute // Profiles change rarely; invalidated on balance updates
)

// Key prefixes
const (
	walkerCachePrefix = "cache:walker:"
	onlineWalkersKey  = "walkers:online"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedWalker represents a cached walker profile.
type CachedWalker struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PhotoURL     string  `json:"photo_url"`
	Rating       float64 `json:"rating"`
	Reviews      int     `json:"reviews"`
	Verification string  `json:"verification"`
	Balance      int64   `json:"balance"`
}

// GetWalker retrieves a walker from cache. Returns nil, nil on a miss.
func (s *CacheStore) GetWalker(ctx context.Context, walkerID string) (*CachedWalker, error) {
	data, err := s.client.Get(ctx, walkerCachePrefix+walkerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, errors.Wrap(err, "get cached walker")
	}

	var walker CachedWalker
	if err := json.Unmarshal(data, &walker); err != nil {
		return nil, errors.Wrap(err, "decode cached walker")
	}
	return &walker, nil
}

// SetWalker stores a walker in cache.
func (s *CacheStore) SetWalker(ctx context.Context, walker *CachedWalker) error {
	data, err := json.Marshal(walker)
	if err != nil {
		return err
	}
	return errors.Wrap(s.client.Set(ctx, walkerCachePrefix+walker.ID, data, WalkerCacheTTL).Err(), "set cached walker")
}

// InvalidateWalker removes a walker from cache.
func (s *CacheStore) InvalidateWalker(ctx context.Context, walkerID string) error {
	return errors.Wrap(s.client.Del(ctx, walkerCachePrefix+walkerID).Err(), "invalidate cached walker")
}

// SetWalkerOnline adds or removes the walker from the online set.
func (s *CacheStore) SetWalkerOnline(ctx context.Context, walkerID string, online bool) error {
	if online {
		return errors.Wrap(s.client.SAdd(ctx, onlineWalkersKey, walkerID).Err(), "sadd online walker")
	}
	return errors.Wrap(s.client.SRem(ctx, onlineWalkersKey, walkerID).Err(), "srem online walker")
}

// IsWalkerOnline checks if a walker is in the online set.
func (s *CacheStore) IsWalkerOnline(ctx context.Context, walkerID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, onlineWalkersKey, walkerID).Result()
	return ok, errors.Wrap(err, "sismember online walker")
}
