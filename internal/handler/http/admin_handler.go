package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
)

// AdminHandler serves account management, runtime settings, the audit trail
// and the maintenance sweeps.
type AdminHandler struct {
	lockout      *service.LockoutService
	policy       *service.PasswordPolicyService
	sessions     *service.SessionService
	borrowings   *service.BorrowingService
	reservations *service.ReservationService
	settings     *service.SettingsService
	auditLogs    repository.AuditLogRepository
	logger       *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	lockout *service.LockoutService,
	policy *service.PasswordPolicyService,
	sessions *service.SessionService,
	borrowings *service.BorrowingService,
	reservations *service.ReservationService,
	settings *service.SettingsService,
	auditLogs repository.AuditLogRepository,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		lockout:      lockout,
		policy:       policy,
		sessions:     sessions,
		borrowings:   borrowings,
		reservations: reservations,
		settings:     settings,
		auditLogs:    auditLogs,
		logger:       logger,
	}
}

type lockUserRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

// LockUser handles POST /api/v1/admin/users/:user_id/lock. The lock applies
// to any role and every active session of the target is terminated.
func (h *AdminHandler) LockUser(c *gin.Context) {
	adminID, _ := middleware.UserIDFromContext(c)
	targetID, ok := pathID(c, "user_id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid user id", "bad_request", h.logger)
		return
	}

	var req lockUserRequest
	_ = c.ShouldBindJSON(&req) // optional body, zero means the configured default

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if err := h.lockout.ManualLock(c.Request.Context(), targetID, duration, adminID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	terminated, err := h.sessions.TerminateAll(c.Request.Context(), targetID)
	if err != nil {
		h.logger.Error("Failed to terminate sessions of locked account",
			zap.Error(err), zap.String("user_id", targetID.String()))
	}

	RespondWithData(c, http.StatusOK, gin.H{
		"message":             "account locked",
		"sessions_terminated": terminated,
	})
}

// UnlockUser handles POST /api/v1/admin/users/:user_id/unlock.
func (h *AdminHandler) UnlockUser(c *gin.Context) {
	adminID, _ := middleware.UserIDFromContext(c)
	targetID, ok := pathID(c, "user_id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid user id", "bad_request", h.logger)
		return
	}

	if err := h.lockout.ManualUnlock(c.Request.Context(), targetID, adminID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "account unlocked")
}

// ForcePasswordChange handles POST /api/v1/admin/users/:user_id/force-password-change.
func (h *AdminHandler) ForcePasswordChange(c *gin.Context) {
	adminID, _ := middleware.UserIDFromContext(c)
	targetID, ok := pathID(c, "user_id")
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "invalid user id", "bad_request", h.logger)
		return
	}

	if err := h.policy.ForceChange(c.Request.Context(), targetID, adminID); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "password change required at next request")
}

// ListSettings handles GET /api/v1/admin/settings.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context())
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{"settings": settings})
}

type updateSettingRequest struct {
	Value       string `json:"value" binding:"required"`
	SettingType string `json:"setting_type"`
	Description string `json:"description"`
}

// UpdateSetting handles PUT /api/v1/admin/settings/:key.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	adminID, _ := middleware.UserIDFromContext(c)
	key := c.Param("key")
	if key == "" {
		RespondWithError(c, http.StatusBadRequest, "setting key is required", "bad_request", h.logger)
		return
	}

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "a value is required", "bad_request", h.logger)
		return
	}

	settingType := models.SettingType(req.SettingType)
	if settingType == "" {
		settingType = models.SettingTypeText
	}

	setting, err := h.settings.Set(c.Request.Context(), key, req.Value, settingType, req.Description, adminID)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, setting)
}

// ListAuditLogs handles GET /api/v1/admin/audit-logs.
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	entries, err := h.auditLogs.List(c.Request.Context(), limit, offset)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{"audit_logs": entries, "limit": limit, "offset": offset})
}

// RunSweeps handles POST /api/v1/admin/maintenance/sweep. Each sweep is
// idempotent; a failure in one does not stop the others.
func (h *AdminHandler) RunSweeps(c *gin.Context) {
	ctx := c.Request.Context()
	result := gin.H{}

	if expired, err := h.borrowings.ExpireStalePickups(ctx); err != nil {
		h.logger.Error("Pickup sweep failed", zap.Error(err))
		result["pickups_error"] = "sweep failed"
	} else {
		result["pickups_expired"] = expired
	}

	if expired, err := h.reservations.ExpireStale(ctx); err != nil {
		h.logger.Error("Reservation sweep failed", zap.Error(err))
		result["reservations_error"] = "sweep failed"
	} else {
		result["reservations_expired"] = expired
	}

	if expired, err := h.sessions.CleanupExpired(ctx); err != nil {
		h.logger.Error("Session sweep failed", zap.Error(err))
		result["sessions_error"] = "sweep failed"
	} else {
		result["sessions_expired"] = expired
	}

	RespondWithData(c, http.StatusOK, result)
}
