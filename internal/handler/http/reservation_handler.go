package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
)

// ReservationHandler serves reservation placement and librarian decisions.
type ReservationHandler struct {
	reservations *service.ReservationService
	logger       *zap.Logger
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(reservations *service.ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, logger: logger}
}

type reserveRequest struct {
	BookID int64  `json:"book_id" binding:"required"`
	Type   string `json:"type"`
}

// Reserve handles POST /api/v1/reservations.
func (h *ReservationHandler) Reserve(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "book_id is required", "bad_request", h.logger)
		return
	}

	reservation, err := h.reservations.Reserve(c.Request.Context(), userID, req.BookID, models.ReservationType(req.Type))
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithCreated(c, reservation)
}

// List handles GET /api/v1/reservations.
func (h *ReservationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	reservations, err := h.reservations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{"reservations": reservations})
}

// Cancel handles POST /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	reservationID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid reservation id", "bad_request", h.logger)
		return
	}

	if err := h.reservations.Cancel(c.Request.Context(), reservationID, userID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "reservation cancelled")
}

// Approve handles POST /api/v1/reservations/:id/approve.
func (h *ReservationHandler) Approve(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	reservationID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid reservation id", "bad_request", h.logger)
		return
	}

	reservation, err := h.reservations.Approve(c.Request.Context(), reservationID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, reservation)
}

// Reject handles POST /api/v1/reservations/:id/reject.
func (h *ReservationHandler) Reject(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	reservationID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid reservation id", "bad_request", h.logger)
		return
	}

	reservation, err := h.reservations.Reject(c.Request.Context(), reservationID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, reservation)
}
