package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
)

// FineHandler serves fine queries and payment recording.
type FineHandler struct {
	fines  *service.FineService
	logger *zap.Logger
}

// NewFineHandler creates a new fine handler.
func NewFineHandler(fines *service.FineService, logger *zap.Logger) *FineHandler {
	return &FineHandler{fines: fines, logger: logger}
}

// ListUnpaid handles GET /api/v1/fines.
func (h *FineHandler) ListUnpaid(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	fines, err := h.fines.ListUnpaid(c.Request.Context(), userID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{"fines": fines})
}

// Pay handles POST /api/v1/fines/:id/pay.
func (h *FineHandler) Pay(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	fineID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid fine id", "bad_request", h.logger)
		return
	}

	if err := h.fines.Pay(c.Request.Context(), fineID, staffID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "fine paid")
}
