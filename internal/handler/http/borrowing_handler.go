package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
)

// BorrowingHandler serves the borrowing workflow: member-side requests and
// the librarian decision/desk endpoints.
type BorrowingHandler struct {
	borrowings *service.BorrowingService
	logger     *zap.Logger
}

// NewBorrowingHandler creates a new borrowing handler.
func NewBorrowingHandler(borrowings *service.BorrowingService, logger *zap.Logger) *BorrowingHandler {
	return &BorrowingHandler{borrowings: borrowings, logger: logger}
}

type borrowRequest struct {
	BookID int64 `json:"book_id" binding:"required"`
}

// Request handles POST /api/v1/borrowings.
func (h *BorrowingHandler) Request(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "book_id is required", "bad_request", h.logger)
		return
	}

	borrowing, err := h.borrowings.Request(c.Request.Context(), userID, req.BookID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithCreated(c, borrowing)
}

// List handles GET /api/v1/borrowings.
func (h *BorrowingHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	borrowings, err := h.borrowings.ListForUser(c.Request.Context(), userID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{"borrowings": borrowings})
}

// Cancel handles POST /api/v1/borrowings/:id/cancel.
func (h *BorrowingHandler) Cancel(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	if err := h.borrowings.Cancel(c.Request.Context(), borrowingID, userID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "borrowing cancelled")
}

// Approve handles POST /api/v1/borrowings/:id/approve.
func (h *BorrowingHandler) Approve(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	borrowing, err := h.borrowings.Approve(c.Request.Context(), borrowingID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	// The only response that ever carries the pickup code.
	RespondWithData(c, http.StatusOK, gin.H{
		"borrowing":   borrowing,
		"pickup_code": borrowing.PickupCode,
	})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject handles POST /api/v1/borrowings/:id/reject.
func (h *BorrowingHandler) Reject(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "a rejection reason is required", "bad_request", h.logger)
		return
	}

	borrowing, err := h.borrowings.Reject(c.Request.Context(), borrowingID, staffID, req.Reason)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, borrowing)
}

type pickupRequest struct {
	Code string `json:"code" binding:"required"`
}

// Pickup handles POST /api/v1/borrowings/pickup: the desk redeems a member's
// pickup code and the loan starts.
func (h *BorrowingHandler) Pickup(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)

	var req pickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "a pickup code is required", "bad_request", h.logger)
		return
	}

	borrowing, err := h.borrowings.RedeemPickupCode(c.Request.Context(), req.Code, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, borrowing)
}

// Return handles POST /api/v1/borrowings/:id/return.
func (h *BorrowingHandler) Return(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	borrowing, fine, err := h.borrowings.Return(c.Request.Context(), borrowingID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	response := gin.H{"borrowing": borrowing}
	if fine != nil {
		response["fine"] = fine
	}
	RespondWithData(c, http.StatusOK, response)
}

// ReportDamaged handles POST /api/v1/borrowings/:id/damaged.
func (h *BorrowingHandler) ReportDamaged(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	fine, err := h.borrowings.ReportDamaged(c.Request.Context(), borrowingID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithCreated(c, fine)
}

// RequestExtension handles POST /api/v1/borrowings/:id/extension.
func (h *BorrowingHandler) RequestExtension(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	borrowingID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid borrowing id", "bad_request", h.logger)
		return
	}

	req, err := h.borrowings.RequestExtension(c.Request.Context(), borrowingID, userID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithCreated(c, req)
}

// ApproveExtension handles POST /api/v1/extensions/:id/approve.
func (h *BorrowingHandler) ApproveExtension(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid extension request id", "bad_request", h.logger)
		return
	}

	req, err := h.borrowings.ApproveExtension(c.Request.Context(), requestID, staffID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, req)
}

// RejectExtension handles POST /api/v1/extensions/:id/reject.
func (h *BorrowingHandler) RejectExtension(c *gin.Context) {
	staffID, _ := middleware.UserIDFromContext(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid extension request id", "bad_request", h.logger)
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "a rejection reason is required", "bad_request", h.logger)
		return
	}

	decided, err := h.borrowings.RejectExtension(c.Request.Context(), requestID, staffID, req.Reason)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, decided)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
