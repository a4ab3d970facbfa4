package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dogwalk/internal/domain"
	"dogwalk/internal/service"
)

// AdminHandler serves the back-office endpoints.
type AdminHandler struct {
	walkerService *service.WalkerService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(walkerService *service.WalkerService) *AdminHandler {
	return &AdminHandler{walkerService: walkerService}
}

// VerificationRequest is the review decision for a walker.
type VerificationRequest struct {
	Status string `json:"status"` // approved, rejected
}

// ListWalkers handles GET /v1/admin/walkers?status=pending
func (h *AdminHandler) ListWalkers(c *gin.Context) {
	status := domain.VerificationStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be pending, approved or rejected"})
		return
	}

	walkers, err := h.walkerService.ListWalkers(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]WalkerResponse, 0, len(walkers))
	for _, w := range walkers {
		out = append(out, toWalkerResponse(w))
	}
	respondJSON(c, http.StatusOK, out)
}

// ReviewVerification handles POST /v1/admin/walkers/:id/verification
func (h *AdminHandler) ReviewVerification(c *gin.Context) {
	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	w, err := h.walkerService.ReviewVerification(c.Request.Context(), c.Param("id"), domain.VerificationStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWalkerResponse(w))
}
