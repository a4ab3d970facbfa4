package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dogwalk/internal/domain"
	"dogwalk/internal/service"
	"dogwalk/internal/walk"
)

// WalkerHandler handles HTTP requests for walkers.
type WalkerHandler struct {
	walkerService *service.WalkerService
	registry      *walk.Registry
}

// NewWalkerHandler creates a new WalkerHandler.
func NewWalkerHandler(walkerService *service.WalkerService, registry *walk.Registry) *WalkerHandler {
	return &WalkerHandler{
		walkerService: walkerService,
		registry:      registry,
	}
}

// RegisterWalkerRequest is the HTTP request body for registering a walker.
type RegisterWalkerRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// AcceptBookingRequest is the HTTP request body for claiming a booking.
type AcceptBookingRequest struct {
	BookingID string `json:"booking_id"`
}

// OnlineRequest toggles walker availability.
type OnlineRequest struct {
	Online bool `json:"online"`
}

// FinishWalkRequest carries the walker's explicit confirmation.
type FinishWalkRequest struct {
	Confirm bool `json:"confirm"`
}

// FinishWalkResponse is the HTTP response for a finished walk.
type FinishWalkResponse struct {
	Booking     BookingResponse     `json:"booking"`
	Transaction TransactionResponse `json:"transaction"`
}

// Register handles POST /v1/walkers/register
func (h *WalkerHandler) Register(c *gin.Context) {
	var req RegisterWalkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	w, err := h.walkerService.Register(c.Request.Context(), service.RegisterWalkerRequest{
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toWalkerResponse(w))
}

// GetWalker handles GET /v1/walkers/:id
func (h *WalkerHandler) GetWalker(c *gin.Context) {
	w, err := h.walkerService.Walker(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toWalkerResponse(w)
	online, err := h.walkerService.IsOnline(c.Request.Context(), w.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Online = online
	respondJSON(c, http.StatusOK, resp)
}

// Balance handles GET /v1/walkers/:id/balance
func (h *WalkerHandler) Balance(c *gin.Context) {
	summary, err := h.walkerService.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBalanceResponse(summary))
}

// Claimable handles GET /v1/walkers/:id/claimable
func (h *WalkerHandler) Claimable(c *gin.Context) {
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()
	if err := ctrl.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(ctrl.Claimable()))
}

// Active handles GET /v1/walkers/:id/active
func (h *WalkerHandler) Active(c *gin.Context) {
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()
	if err := ctrl.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(ctrl.Active()))
}

// Accept handles POST /v1/walkers/:id/accept
func (h *WalkerHandler) Accept(c *gin.Context) {
	var req AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()

	if err := ctrl.Accept(c.Request.Context(), req.BookingID); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"accepted":  true,
		"active":    toBookingResponses(ctrl.Active()),
		"claimable": toBookingResponses(ctrl.Claimable()),
	})
}

// SetOnline handles POST /v1/walkers/:id/online
func (h *WalkerHandler) SetOnline(c *gin.Context) {
	var req OnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()

	ctx := c.Request.Context()
	if err := ctrl.SetOnline(ctx, req.Online); err != nil {
		respondError(c, err)
		return
	}
	if req.Online {
		if err := ctrl.Refresh(ctx); err != nil {
			respondError(c, err)
			return
		}
	}
	respondJSON(c, http.StatusOK, gin.H{"online": ctrl.Online(), "relaying": ctrl.Relaying()})
}

// StartWalk handles POST /v1/walkers/:id/bookings/:booking_id/start
func (h *WalkerHandler) StartWalk(c *gin.Context) {
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()
	b, err := ctrl.Start(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(b))
}

// FinishWalk handles POST /v1/walkers/:id/bookings/:booking_id/finish
func (h *WalkerHandler) FinishWalk(c *gin.Context) {
	var req FinishWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	ctrl, release, ok := h.controller(c)
	if !ok {
		return
	}
	defer release()

	res, err := ctrl.Finish(c.Request.Context(), c.Param("booking_id"), func(context.Context, *domain.Booking) bool {
		return req.Confirm
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, FinishWalkResponse{
		Booking:     toBookingResponse(res.Booking),
		Transaction: toTransactionResponse(res.Transaction),
	})
}

// controller acquires the walker's controller after checking the walker
// exists. The caller must release it.
func (h *WalkerHandler) controller(c *gin.Context) (*walk.Controller, func(), bool) {
	walkerID := c.Param("id")
	if _, err := h.walkerService.Walker(c.Request.Context(), walkerID); err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	ctrl, release := h.registry.Acquire(walkerID)
	return ctrl, release, true
}
