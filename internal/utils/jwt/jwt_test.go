package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-mko/Libsys/internal/config"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	jwtUtil "github.com/sudo-mko/Libsys/internal/utils/jwt"
)

func newTestManager(t *testing.T, ttl time.Duration) *jwtUtil.TokenManager {
	t.Helper()
	tm, err := jwtUtil.NewTokenManager(config.AuthConfig{
		TokenSigningKey: "test-signing-key-for-unit-tests",
		TokenTTL:        ttl,
		Issuer:          "libsys-test",
	})
	require.NoError(t, err)
	return tm
}

func testTokenUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "reader",
		Role:     models.RoleMember,
	}
}

func TestNewTokenManager_MissingKey(t *testing.T) {
	_, err := jwtUtil.NewTokenManager(config.AuthConfig{TokenTTL: time.Hour})
	require.Error(t, err)
}

func TestGenerateAndParseSessionToken(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	user := testTokenUser()
	sessionID := uuid.New().String()

	token, err := tm.GenerateSessionToken(user, sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.ID)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "reader", claims.Username)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "libsys-test", claims.Issuer)
}

func TestParseSessionToken_Expired(t *testing.T) {
	tm := newTestManager(t, -time.Minute)
	token, err := tm.GenerateSessionToken(testTokenUser(), uuid.New().String())
	require.NoError(t, err)

	_, err = tm.ParseSessionToken(token)
	assert.ErrorIs(t, err, jwtUtil.ErrExpiredToken)
}

func TestParseSessionToken_WrongKey(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	other, err := jwtUtil.NewTokenManager(config.AuthConfig{
		TokenSigningKey: "a-different-signing-key",
		TokenTTL:        time.Hour,
		Issuer:          "libsys-test",
	})
	require.NoError(t, err)

	token, err := tm.GenerateSessionToken(testTokenUser(), uuid.New().String())
	require.NoError(t, err)

	_, err = other.ParseSessionToken(token)
	assert.ErrorIs(t, err, jwtUtil.ErrInvalidToken)
}

func TestParseSessionToken_Garbage(t *testing.T) {
	tm := newTestManager(t, time.Hour)

	_, err := tm.ParseSessionToken("not.a.token")
	assert.ErrorIs(t, err, jwtUtil.ErrInvalidToken)
}

func TestParseSessionToken_TamperedPayload(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	token, err := tm.GenerateSessionToken(testTokenUser(), uuid.New().String())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1][:len(parts[1])-2] + "xx"

	_, err = tm.ParseSessionToken(strings.Join(parts, "."))
	assert.ErrorIs(t, err, jwtUtil.ErrInvalidToken)
}
