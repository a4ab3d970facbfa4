package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dogwalk/internal/domain"
	"dogwalk/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService  *service.BookingService
	trackingService *service.TrackingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, trackingService *service.TrackingService) *BookingHandler {
	return &BookingHandler{
		bookingService:  bookingService,
		trackingService: trackingService,
	}
}

// CreateBookingRequest is the HTTP request body for reserving a walk.
type CreateBookingRequest struct {
	OwnerID       string  `json:"owner_id"`
	Address       string  `json:"address"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ScheduledDate string  `json:"scheduled_date"`
	ScheduledTime string  `json:"scheduled_time"`
	Duration      string  `json:"duration"` // short, medium, long
	PaymentMethod string  `json:"payment_method"`
}

// RatingRequest is the HTTP request body for rating a walk.
type RatingRequest struct {
	OwnerID string `json:"owner_id"`
	Rating  int    `json:"rating"`
	Review  string `json:"review,omitempty"`
}

// AppendLocationRequest is one GPS fix posted by a walker.
type AppendLocationRequest struct {
	WalkerID   string     `json:"walker_id"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	b, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		OwnerID:       req.OwnerID,
		Address:       req.Address,
		Lat:           req.Lat,
		Lng:           req.Lng,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Duration:      domain.WalkDuration(req.Duration),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(b))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(b))
}

// SubmitRating handles POST /v1/bookings/:id/rating
func (h *BookingHandler) SubmitRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.OwnerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "owner_id is required"})
		return
	}

	b, err := h.bookingService.SubmitRating(c.Request.Context(), c.Param("id"), req.OwnerID, req.Rating, req.Review)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(b))
}

// ListLocations handles GET /v1/bookings/:id/locations
func (h *BookingHandler) ListLocations(c *gin.Context) {
	fixes, err := h.bookingService.ListLocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]LocationResponse, 0, len(fixes))
	for _, f := range fixes {
		resp = append(resp, toLocationResponse(f))
	}
	respondJSON(c, http.StatusOK, resp)
}

// AppendLocation handles POST /v1/bookings/:id/locations
func (h *BookingHandler) AppendLocation(c *gin.Context) {
	var req AppendLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	appendReq := service.AppendFixRequest{
		BookingID: c.Param("id"),
		WalkerID:  req.WalkerID,
		Lat:       req.Lat,
		Lng:       req.Lng,
	}
	if req.CapturedAt != nil {
		appendReq.CapturedAt = *req.CapturedAt
	}

	fix, err := h.trackingService.AppendFix(c.Request.Context(), appendReq)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toLocationResponse(fix))
}
