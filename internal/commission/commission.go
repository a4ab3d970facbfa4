// Package commission splits a booking price into gateway fee, platform fee
// and the walker's net earning.
package commission

import "errors"

const (
	// GatewayFeePercent is charged by the payment gateway on every booking.
	GatewayFeePercent = 4
	// PlatformFeePercent is retained by the marketplace.
	PlatformFeePercent = 20
)

// ErrInvalidPrice is returned for non-positive prices.
var ErrInvalidPrice = errors.New("price must be positive")

// Breakdown is the result of the commission step, in minor currency units.
type Breakdown struct {
	Price       int64
	GatewayFee  int64
	PlatformFee int64
	NetEarning  int64
}

// Compute returns the breakdown for price.
func Compute(price int64) (Breakdown, error) {
	if price <= 0 {
		return Breakdown{}, ErrInvalidPrice
	}

	gateway := percentOf(price, GatewayFeePercent)
	platform := percentOf(price, PlatformFeePercent)

	return Breakdown{
		Price:       price,
		GatewayFee:  gateway,
		PlatformFee: platform,
		NetEarning:  price - gateway - platform,
	}, nil
}

// percentOf rounds half up.
func percentOf(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}
