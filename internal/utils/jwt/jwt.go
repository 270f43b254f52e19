package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sudo-mko/Libsys/internal/config"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

var (
	// ErrInvalidToken is returned when the token fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// TokenManager issues and verifies signed session tokens.
type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

// NewTokenManager creates a new token manager.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.TokenSigningKey == "" {
		return nil, errors.New("token signing key is not configured")
	}
	return &TokenManager{
		signingKey: []byte(cfg.TokenSigningKey),
		ttl:        cfg.TokenTTL,
		issuer:     cfg.Issuer,
	}, nil
}

// GenerateSessionToken issues a token bound to the given session.
func (tm *TokenManager) GenerateSessionToken(user *models.User, sessionID string) (string, error) {
	now := time.Now()
	claims := &SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.issuer,
			ID:        sessionID,
		},
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     string(user.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.signingKey)
}

// ParseSessionToken parses and verifies a session token.
func (tm *TokenManager) ParseSessionToken(tokenString string) (*SessionTokenClaims, error) {
	claims := &SessionTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return tm.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
