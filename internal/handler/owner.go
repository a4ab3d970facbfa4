package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dogwalk/internal/service"
)

// OwnerHandler handles HTTP requests for dog owners.
type OwnerHandler struct {
	ownerService   *service.OwnerService
	bookingService *service.BookingService
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(ownerService *service.OwnerService, bookingService *service.BookingService) *OwnerHandler {
	return &OwnerHandler{
		ownerService:   ownerService,
		bookingService: bookingService,
	}
}

// RegisterOwnerRequest is the HTTP request body for registering an owner.
type RegisterOwnerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OwnerResponse is the HTTP representation of an owner.
type OwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CurrentWalkResponse wraps the owner's latest unrated booking, if any.
type CurrentWalkResponse struct {
	Booking *BookingResponse `json:"booking"`
}

// Register handles POST /v1/owners/register
func (h *OwnerHandler) Register(c *gin.Context) {
	var req RegisterOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	owner, err := h.ownerService.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, OwnerResponse{
		ID:    owner.ID,
		Name:  owner.Name,
		Email: owner.Email,
	})
}

// CurrentWalk handles GET /v1/owners/:id/current-walk
func (h *OwnerHandler) CurrentWalk(c *gin.Context) {
	b, err := h.bookingService.LatestUnrated(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var resp CurrentWalkResponse
	if b != nil {
		br := toBookingResponse(b)
		resp.Booking = &br
	}
	respondJSON(c, http.StatusOK, resp)
}
