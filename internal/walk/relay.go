package walk

import (
	"context"
	"log/slog"

	"dogwalk/internal/domain"
	"dogwalk/internal/geo"
	"dogwalk/internal/observability"
	"dogwalk/internal/service"
)

// MinFixDistanceMeters is the movement needed before another fix is relayed.
const MinFixDistanceMeters = 15.0

// runRelay forwards device positions for the oldest active booking. The
// first position per booking is always sent; after that only moves of at
// least MinFixDistanceMeters. Failed writes are logged and dropped.
func (c *Controller) runRelay(ctx context.Context, src <-chan domain.Coordinate) {
	defer c.wg.Done()

	var (
		bookingID string
		last      *domain.Coordinate
	)
	for {
		select {
		case <-ctx.Done():
			return
		case pos, ok := <-src:
			if !ok {
				c.sourceClosed(src)
				return
			}
			if !pos.Valid() {
				observability.LocationFixesTotal.WithLabelValues("invalid").Inc()
				continue
			}

			target := c.currentTarget()
			if target == "" {
				continue
			}
			if target != bookingID {
				bookingID = target
				last = nil
			}
			if last != nil && geo.Distance(*last, pos) < MinFixDistanceMeters {
				observability.LocationFixesTotal.WithLabelValues("skipped").Inc()
				continue
			}

			p := pos
			last = &p
			c.sendFix(ctx, bookingID, pos)
		}
	}
}

func (c *Controller) sendFix(ctx context.Context, bookingID string, pos domain.Coordinate) {
	_, err := c.deps.Fixes.AppendFix(ctx, service.AppendFixRequest{
		BookingID: bookingID,
		WalkerID:  c.walkerID,
		Lat:       pos.Lat,
		Lng:       pos.Lng,
	})
	if err != nil {
		observability.LocationFixesTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("dropping location fix",
			slog.String("booking_id", bookingID),
			slog.String("error", err.Error()))
		return
	}
	observability.LocationFixesTotal.WithLabelValues("sent").Inc()
}

func (c *Controller) currentTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relayTargetLocked()
}

func (c *Controller) sourceClosed(src <-chan domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == src {
		c.source = nil
	}
	if c.relay != nil && c.relay.src == src {
		c.relay.cancel()
		c.relay = nil
	}
}
