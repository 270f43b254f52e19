package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/service"
)

// exemptFromForcedChange lists the routes a user with a pending password
// change may still reach: changing the password and leaving.
var exemptFromForcedChange = map[string]struct{}{
	"/api/v1/auth/change-password": {},
	"/api/v1/auth/logout":          {},
}

// ForcePasswordChangeMiddleware blocks every other route once the rotation
// policy demands a new password. Admins pass while their grace window is
// open; the remaining seconds are reported so the client can warn. Must run
// after AuthMiddleware.
func ForcePasswordChangeMiddleware(users repository.UserRepository, policy *service.PasswordPolicyService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exempt := exemptFromForcedChange[c.FullPath()]; exempt {
			c.Next()
			return
		}

		userID, ok := UserIDFromContext(c)
		if !ok {
			c.Next()
			return
		}
		session, ok := SessionFromContext(c)
		if !ok {
			c.Next()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			// The session check already passed; a transient user-load failure
			// must not lock every request out.
			logger.Warn("Failed to load user for password policy check",
				zap.Error(err), zap.String("user_id", userID.String()))
			c.Next()
			return
		}

		if policy.ShouldForceChange(user, session.CreatedAt) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "password change required before continuing",
				"code":  "password_change_required",
			})
			return
		}

		c.Next()
	}
}
