package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
)

// AuthHandler serves login, logout and password change.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "username and password are required", "bad_request", h.logger)
		return
	}

	ip := clientIP(c)
	userAgent := c.Request.UserAgent()
	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, ip, &userAgent)
	if err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}
	sessionID, _ := middleware.SessionIDFromContext(c)

	if err := h.auth.Logout(c.Request.Context(), userID, sessionID, clientIP(c)); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "logged out")
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, "not authenticated", "unauthorized", h.logger)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "old and new passwords are required", "bad_request", h.logger)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword, clientIP(c)); err != nil {
		RespondWithDomainError(c, err, h.logger)
		return
	}

	RespondWithMessage(c, http.StatusOK, "password changed")
}

func clientIP(c *gin.Context) *string {
	ip := c.ClientIP()
	if ip == "" {
		return nil
	}
	return &ip
}
