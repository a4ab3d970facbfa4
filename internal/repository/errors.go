package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional write found the row in an unexpected state.
	ErrConflict = errors.New("entity state conflict")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("entity already exists")
)
