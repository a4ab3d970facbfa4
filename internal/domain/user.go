package domain

import "time"

// Owner represents a dog owner who books walks.
type Owner struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
