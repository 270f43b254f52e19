package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenClaims is the payload of the signed session token the web layer
// carries. The JWT ID (jti) is the server-side session ID; the token proves
// nothing on its own, every request is still checked against the session row.
type SessionTokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
