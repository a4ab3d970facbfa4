package domain

import "time"

// VerificationStatus represents the identity verification state of a walker.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Valid reports whether s is a known verification state.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// WalkerProfile is the public profile of a walker.
type WalkerProfile struct {
	ID           string
	Name         string
	PhotoURL     string
	Rating       float64
	Reviews      int
	Verification VerificationStatus
	Balance      int64 // Minor currency units
	CreatedAt    time.Time
}
