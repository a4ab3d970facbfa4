package service

import "errors"

var (
	// ErrInvalidOwnerID is returned when owner ID is empty.
	ErrInvalidOwnerID = errors.New("invalid owner id")

	// ErrInvalidWalkerID is returned when walker ID is empty.
	ErrInvalidWalkerID = errors.New("invalid walker id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidAddress is returned when the pickup address is empty.
	ErrInvalidAddress = errors.New("invalid pickup address")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidDuration is returned for an unknown duration category.
	ErrInvalidDuration = errors.New("invalid walk duration")

	// ErrInvalidSchedule is returned when date or time cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule, expected YYYY-MM-DD and HH:MM")

	// ErrInvalidRating is returned when rating is outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidName is returned when a display name is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrOwnerExists is returned when registering an email twice.
	ErrOwnerExists = errors.New("owner already registered")

	// ErrNotBookingOwner is returned when someone else's booking is rated.
	ErrNotBookingOwner = errors.New("booking belongs to another owner")

	// ErrWalkerNotAssigned is returned when the walker is not assigned to the booking.
	ErrWalkerNotAssigned = errors.New("walker not assigned to this booking")

	// ErrBookingNotActive is returned when a booking is not accepted or in progress.
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrBookingNotCompleted is returned when rating a walk that has not finished.
	ErrBookingNotCompleted = errors.New("booking is not completed")

	// ErrBookingAlreadyRated is returned when a booking already carries a rating.
	ErrBookingAlreadyRated = errors.New("booking already rated")

	// ErrInvalidTransition is returned when a status change would not move forward.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrFinishInProgress is returned when another finish request holds the booking lock.
	ErrFinishInProgress = errors.New("booking is already being finished")

	// ErrInvalidPaymentAmount is returned when payment amount is invalid.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrPaymentFailed is returned when the payment provider declines the charge.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrWalkerNotVerified is returned when an unapproved walker tries to accept a booking.
	ErrWalkerNotVerified = errors.New("walker identity not verified")

	// ErrInvalidVerification is returned for a review decision other than approved or rejected.
	ErrInvalidVerification = errors.New("invalid verification status")

	// ErrVerificationReviewed is returned when the walker's verification is no longer pending.
	ErrVerificationReviewed = errors.New("verification already reviewed")

	// ErrInvalidUserID is returned when a chat participant ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidConversationID is returned when conversation ID is empty.
	ErrInvalidConversationID = errors.New("invalid conversation id")

	// ErrInvalidMessage is returned when a message is empty or too long.
	ErrInvalidMessage = errors.New("message must be 1-2000 characters")

	// ErrNotParticipant is returned when a user reads or writes someone else's conversation.
	ErrNotParticipant = errors.New("user is not part of this conversation")
)
