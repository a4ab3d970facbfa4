package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"dogwalk/internal/domain"
)

const walkPositionKey = "walks:positions"

// PositionStore keeps the latest walker position of every active walk in a
// geo index keyed by booking id.
type PositionStore struct {
	client *redis.Client
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(client *redis.Client) *PositionStore {
	return &PositionStore{client: client}
}

// UpdatePosition stores the walker position of a booking using GEOADD.
func (s *PositionStore) UpdatePosition(ctx context.Context, bookingID string, lat, lng float64) error {
	err := s.client.GeoAdd(ctx, walkPositionKey, &redis.GeoLocation{
		Name:      bookingID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	return errors.Wrap(err, "geoadd walk position")
}

// Position returns the latest walker position of a booking, or nil if unknown.
func (s *PositionStore) Position(ctx context.Context, bookingID string) (*domain.Coordinate, error) {
	positions, err := s.client.GeoPos(ctx, walkPositionKey, bookingID).Result()
	if err != nil {
		return nil, errors.Wrap(err, "geopos walk position")
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &domain.Coordinate{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, nil
}

// RemovePosition drops the booking from the geo index.
func (s *PositionStore) RemovePosition(ctx context.Context, bookingID string) error {
	return errors.Wrap(s.client.ZRem(ctx, walkPositionKey, bookingID).Err(), "zrem walk position")
}
