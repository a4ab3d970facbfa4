package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dogwalk/internal/repository"
	"dogwalk/internal/service"
	"dogwalk/internal/session"
	"dogwalk/internal/walk"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error, please try again"
	}
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOwnerID),
		errors.Is(err, service.ErrInvalidWalkerID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrInvalidVerification),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidConversationID),
		errors.Is(err, service.ErrInvalidMessage),
		errors.Is(err, session.ErrInvalidRating):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, walk.ErrBookingTaken),
		errors.Is(err, service.ErrOwnerExists),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, service.ErrBookingNotActive),
		errors.Is(err, service.ErrBookingNotCompleted),
		errors.Is(err, service.ErrBookingAlreadyRated),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinishInProgress),
		errors.Is(err, service.ErrVerificationReviewed),
		errors.Is(err, walk.ErrNotActive),
		errors.Is(err, session.ErrNotCompleted),
		errors.Is(err, session.ErrConcluded):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotBookingOwner),
		errors.Is(err, service.ErrWalkerNotAssigned),
		errors.Is(err, service.ErrWalkerNotVerified),
		errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden

	case errors.Is(err, walk.ErrNotConfirmed):
		return http.StatusPreconditionFailed

	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired

	case errors.Is(err, walk.ErrClosed):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
