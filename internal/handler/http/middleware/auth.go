package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/service"
	"github.com/sudo-mko/Libsys/internal/utils/jwt"
)

const (
	authHeaderKey  = "Authorization"
	authTypeBearer = "bearer"

	// Context keys populated by AuthMiddleware.
	ContextUserIDKey    = "userID"
	ContextSessionIDKey = "sessionID"
	ContextRoleKey      = "role"
	ContextSessionKey   = "session"
	ContextUsernameKey  = "username"
)

// AuthMiddleware authenticates the request. The bearer token only identifies
// the session; the session row is the source of truth, so every request runs
// the inactivity check and a timed-out session is rejected even when the
// token itself is still within its TTL.
func AuthMiddleware(tokens *jwt.TokenManager, sessions *service.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header required", "code": "unauthorized",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != authTypeBearer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header format must be Bearer <token>", "code": "unauthorized",
			})
			return
		}

		claims, err := tokens.ParseSessionToken(parts[1])
		if err != nil {
			logger.Warn("Invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token", "code": "unauthorized",
			})
			return
		}

		sessionID, err := uuid.Parse(claims.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session reference", "code": "unauthorized",
			})
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid user reference", "code": "unauthorized",
			})
			return
		}

		result, session, err := sessions.CheckAndTouch(c.Request.Context(), sessionID)
		if err != nil || result != models.CheckValid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "session has expired, please log in again", "code": "session_expired",
			})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextSessionIDKey, sessionID)
		c.Set(ContextRoleKey, models.Role(claims.Role))
		c.Set(ContextSessionKey, session)
		c.Set(ContextUsernameKey, claims.Username)

		c.Next()
	}
}

// UserIDFromContext returns the authenticated user ID set by AuthMiddleware.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// SessionIDFromContext returns the authenticated session ID.
func SessionIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextSessionIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// RoleFromContext returns the authenticated user's role.
func RoleFromContext(c *gin.Context) (models.Role, bool) {
	value, ok := c.Get(ContextRoleKey)
	if !ok {
		return "", false
	}
	role, ok := value.(models.Role)
	return role, ok
}

// SessionFromContext returns the session row loaded during authentication.
func SessionFromContext(c *gin.Context) (*models.Session, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}
