package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/utils/jwt"
)

type authFixture struct {
	svc       *AuthService
	users     *MockUserRepository
	sessions  *MockSessionRepository
	passwords *MockPasswordService
	audit     *captureAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	passwords := new(MockPasswordService)
	audit := &captureAudit{}
	logger := zap.NewNop()

	securityCfg := config.SecurityConfig{
		Lockout: testLockoutConfig(),
		PasswordPolicy: config.PasswordPolicyConfig{
			ExpiryDays:      180,
			AdminGraceDelay: 60 * time.Second,
		},
	}

	lockout := NewLockoutService(users, audit, securityCfg.Lockout, logger)
	policy := NewPasswordPolicyService(users, audit, securityCfg.PasswordPolicy, logger)
	tokens, err := jwt.NewTokenManager(config.AuthConfig{
		TokenSigningKey: "test-signing-key",
		TokenTTL:        time.Hour,
		Issuer:          "library-service-test",
	})
	require.NoError(t, err)

	svc := NewAuthService(users, sessions, lockout, policy, passwords, tokens, audit, securityCfg, logger)
	return &authFixture{svc: svc, users: users, sessions: sessions, passwords: passwords, audit: audit}
}

func activeMember(password string) *models.User {
	changed := time.Now().AddDate(0, 0, -30)
	return &models.User{
		ID:                 uuid.New(),
		Username:           "reader",
		Email:              "reader@example.com",
		PasswordHash:       "$argon2id$hash-of-" + password,
		Role:               models.RoleMember,
		LastPasswordChange: &changed,
		CreatedAt:          time.Now().AddDate(-1, 0, 0),
	}
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("correct horse")

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "correct horse", user.PasswordHash).Return(true, nil).Once()
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil).Once()
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := f.svc.Login(context.Background(), "reader", "correct horse", nil, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, uuid.Nil, result.SessionID)
	assert.Equal(t, user.Username, result.User.Username)
	assert.False(t, result.PasswordChangePending)
	assert.True(t, f.audit.has(models.AuditLoginSuccess))
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
	f.passwords.AssertExpectations(t)
}

func TestLogin_UnknownUsernameIsGeneric(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, domainErrors.ErrUserNotFound).Once()

	_, err := f.svc.Login(context.Background(), "ghost", "whatever", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	assert.True(t, f.audit.has(models.AuditLoginFailed))
	f.passwords.AssertNotCalled(t, "CheckPasswordHash", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "wrong", user.PasswordHash).Return(false, nil).Once()
	f.users.On("UpdateLockState", mock.Anything, user.ID, 1, (*time.Time)(nil), mock.AnythingOfType("*time.Time")).
		Return(nil).Once()

	_, err := f.svc.Login(context.Background(), "reader", "wrong", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	assert.Equal(t, 1, user.FailedLoginAttempts)
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.users.AssertExpectations(t)
}

func TestLogin_FifthWrongPasswordLocks(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	user.FailedLoginAttempts = 4

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "wrong", user.PasswordHash).Return(false, nil).Once()
	f.users.On("UpdateLockState", mock.Anything, user.ID, 5, mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
		Return(nil).Once()

	_, err := f.svc.Login(context.Background(), "reader", "wrong", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrAccountLocked)
	assert.True(t, f.audit.has(models.AuditAccountLocked))

	var appErr *domainErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ACCOUNT_LOCKED", appErr.Code)
}

func TestLogin_WarningAfterThirdFailure(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	user.FailedLoginAttempts = 2

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "wrong", user.PasswordHash).Return(false, nil).Once()
	f.users.On("UpdateLockState", mock.Anything, user.ID, 3, (*time.Time)(nil), mock.AnythingOfType("*time.Time")).
		Return(nil).Once()

	_, err := f.svc.Login(context.Background(), "reader", "wrong", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)

	var appErr *domainErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ATTEMPTS_WARNING", appErr.Code)
}

func TestLogin_LockedAccountSkipsPasswordCheck(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	until := time.Now().Add(10 * time.Minute)
	user.AccountLockedUntil = &until
	user.FailedLoginAttempts = 5

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()

	_, err := f.svc.Login(context.Background(), "reader", "right", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrAccountLocked)
	f.passwords.AssertNotCalled(t, "CheckPasswordHash", mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_UnlockPersistFailureDeniesLogin(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	until := time.Now().Add(-time.Minute) // lock already expired
	user.AccountLockedUntil = &until
	user.FailedLoginAttempts = 5

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.users.On("UpdateLockState", mock.Anything, user.ID, 0, (*time.Time)(nil), (*time.Time)(nil)).
		Return(errors.New("write timeout")).Once()

	_, err := f.svc.Login(context.Background(), "reader", "right", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrAccountLocked,
		"when the lazy unlock cannot be persisted the login must fail closed")
	f.passwords.AssertNotCalled(t, "CheckPasswordHash", mock.Anything, mock.Anything)
}

func TestLogin_ExpiredLockClearsAndSucceeds(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	until := time.Now().Add(-time.Minute)
	user.AccountLockedUntil = &until
	user.FailedLoginAttempts = 5

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	// Lazy unlock clears the counter; ResetOnSuccess then sees a clean state.
	f.users.On("UpdateLockState", mock.Anything, user.ID, 0, (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil).Once()
	f.passwords.On("CheckPasswordHash", "right", user.PasswordHash).Return(true, nil).Once()
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil).Once()
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := f.svc.Login(context.Background(), "reader", "right", nil, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, f.audit.has(models.AuditAccountUnlocked))
	f.users.AssertExpectations(t)
}

func TestLogin_ExpiredPasswordFlagsPendingChange(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	user.Role = models.RoleManager
	changed := time.Now().AddDate(0, 0, -200) // well past the 180-day deadline
	user.LastPasswordChange = &changed

	f.users.On("FindByUsername", mock.Anything, "manager").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "right", user.PasswordHash).Return(true, nil).Once()
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil).Once()
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := f.svc.Login(context.Background(), "manager", "right", nil, nil)

	require.NoError(t, err)
	assert.True(t, result.PasswordChangePending)
	assert.Equal(t, 0, result.GraceSeconds, "managers get no grace window")
}

func TestLogin_AdminGetsGraceWindow(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")
	user.Role = models.RoleAdmin
	changed := time.Now().AddDate(0, 0, -200)
	user.LastPasswordChange = &changed

	f.users.On("FindByUsername", mock.Anything, "admin").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "right", user.PasswordHash).Return(true, nil).Once()
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil).Once()
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := f.svc.Login(context.Background(), "admin", "right", nil, nil)

	require.NoError(t, err)
	assert.True(t, result.PasswordChangePending)
	assert.Greater(t, result.GraceSeconds, 0)
	assert.LessOrEqual(t, result.GraceSeconds, 60)
}

func TestLogin_HashCheckErrorIsInternal(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("right")

	f.users.On("FindByUsername", mock.Anything, "reader").Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "right", user.PasswordHash).Return(false, errors.New("malformed hash")).Once()

	_, err := f.svc.Login(context.Background(), "reader", "right", nil, nil)

	assert.ErrorIs(t, err, domainErrors.ErrInternal)
	f.users.AssertNotCalled(t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	userID, sessionID := uuid.New(), uuid.New()

	f.sessions.On("Deactivate", mock.Anything, sessionID).Return(nil).Once()

	require.NoError(t, f.svc.Logout(context.Background(), userID, sessionID, nil))
	assert.True(t, f.audit.has(models.AuditLogout))
	f.sessions.AssertExpectations(t)
}

func TestChangePassword_Success(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("old password")

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "old password", user.PasswordHash).Return(true, nil).Once()
	f.passwords.On("HashPassword", "new password!").Return("$argon2id$new", nil).Once()
	f.users.On("UpdatePassword", mock.Anything, user.ID, "$argon2id$new", mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := f.svc.ChangePassword(context.Background(), user.ID, "old password", "new password!", nil)

	require.NoError(t, err)
	assert.True(t, f.audit.has(models.AuditPasswordChange))
	f.users.AssertExpectations(t)
	f.passwords.AssertExpectations(t)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("old password")

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "not it", user.PasswordHash).Return(false, nil).Once()

	err := f.svc.ChangePassword(context.Background(), user.ID, "not it", "new password!", nil)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	f.passwords.AssertNotCalled(t, "HashPassword", mock.Anything)
}

func TestChangePassword_TooShort(t *testing.T) {
	f := newAuthFixture(t)
	user := activeMember("old password")

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "old password", user.PasswordHash).Return(true, nil).Once()

	err := f.svc.ChangePassword(context.Background(), user.ID, "old password", "short", nil)

	assert.ErrorIs(t, err, domainErrors.ErrWeakPassword)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_ConfiguredMinimumLength(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.cfg.MinPasswordLength = 12
	user := activeMember("old password")

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.passwords.On("CheckPasswordHash", "old password", user.PasswordHash).Return(true, nil).Once()

	err := f.svc.ChangePassword(context.Background(), user.ID, "old password", "ten chars!", nil)

	assert.ErrorIs(t, err, domainErrors.ErrWeakPassword,
		"a 10-character password fails a configured 12-character minimum")
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
