package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// RequireCapability rejects requests whose role does not grant the
// capability. Must run after AuthMiddleware.
func RequireCapability(capability models.Capability, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not authenticated", "code": "unauthorized",
			})
			return
		}

		if !role.HasCapability(capability) {
			logger.Warn("Capability denied",
				zap.String("role", string(role)),
				zap.String("capability", string(capability)),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied", "code": "forbidden",
			})
			return
		}

		c.Next()
	}
}
