package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func bookingLockKey(bookingID string) string {
	return fmt.Sprintf("lock:booking:%s", bookingID)
}

// AcquireBookingLock attempts to acquire a lock for the given booking.
// ok is false if the lock is already held. The returned release func only
// deletes the lock while it is still owned by this caller.
func (s *LockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := bookingLockKey(bookingID)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "setnx booking lock")
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return errors.Wrap(releaseScript.Run(ctx, s.client, []string{key}, token).Err(), "release booking lock")
	}
	return release, true, nil
}
