package domain

import "time"

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is within latitude/longitude bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// LocationFix is one GPS sample emitted by a walker during an active booking.
// Fixes are append-only.
type LocationFix struct {
	ID         string
	BookingID  string
	WalkerID   string
	Lat        float64
	Lng        float64
	CapturedAt time.Time
}

// Coordinate returns the fix position.
func (f *LocationFix) Coordinate() Coordinate {
	return Coordinate{Lat: f.Lat, Lng: f.Lng}
}
