package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/utils/jwt"
	"github.com/sudo-mko/Libsys/internal/utils/metrics"
)

// defaultMinPasswordLength applies when security.min_password_length is unset.
const defaultMinPasswordLength = 8

// LoginResult is what a successful authentication hands back to the handler.
type LoginResult struct {
	Token     string              `json:"token"`
	SessionID uuid.UUID           `json:"session_id"`
	User      models.UserResponse `json:"user"`

	// PasswordChangePending is set when the rotation policy demands a new
	// password. GraceSeconds is the remaining admin grace window; zero means
	// the change blocks everything immediately.
	PasswordChangePending bool `json:"password_change_pending,omitempty"`
	GraceSeconds          int  `json:"grace_seconds,omitempty"`
}

// AuthService implements login, logout and password change on top of the
// lockout engine and the password policy.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	lockout   *LockoutService
	policy    *PasswordPolicyService
	passwords PasswordService
	tokens    *jwt.TokenManager
	audit     AuditRecorder
	cfg       config.SecurityConfig
	logger    *zap.Logger
	now       func() time.Time
}

// PasswordService hashes and verifies passwords. Mirrors
// interfaces.PasswordService; redeclared here so tests can mock it without
// importing the infrastructure package.
type PasswordService interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, encodedHash string) (bool, error)
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	lockout *LockoutService,
	policy *PasswordPolicyService,
	passwords PasswordService,
	tokens *jwt.TokenManager,
	audit AuditRecorder,
	cfg config.SecurityConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		lockout:   lockout,
		policy:    policy,
		passwords: passwords,
		tokens:    tokens,
		audit:     audit,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Login authenticates a user and opens a session. Bad credentials always
// surface as the same generic error regardless of whether the username
// exists; the lockout state is checked before the password so a locked
// account reveals nothing about the password supplied.
func (s *AuthService) Login(ctx context.Context, username, password string, ipAddress, userAgent *string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			s.logger.Warn("Login attempt for unknown username", zap.String("username", username))
			s.audit.Record(ctx, nil, models.AuditLoginFailed, models.AuditStatusFailure,
				map[string]interface{}{"reason": "user_not_found", "username": username}, ipAddress)
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	locked, err := s.lockout.IsLocked(ctx, user)
	if err != nil {
		// Could not persist the lazy unlock; fail closed and keep the
		// account locked rather than guess at its state.
		s.logger.Error("Lockout state check failed, denying login", zap.Error(err), zap.String("user_id", user.ID.String()))
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, s.lockout.LockedError(user)
	}
	if locked {
		s.audit.Record(ctx, &user.ID, models.AuditLoginFailed, models.AuditStatusFailure,
			map[string]interface{}{"reason": "account_locked"}, ipAddress)
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, s.lockout.LockedError(user)
	}

	match, err := s.passwords.CheckPasswordHash(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("Password hash check failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, domainErrors.ErrInternal
	}

	if !match {
		nowLocked, recErr := s.lockout.RecordFailedAttempt(ctx, user)
		if recErr != nil {
			s.logger.Error("Failed to record failed login attempt", zap.Error(recErr), zap.String("user_id", user.ID.String()))
		}
		s.audit.Record(ctx, &user.ID, models.AuditLoginFailed, models.AuditStatusFailure,
			map[string]interface{}{"reason": "invalid_password", "attempts": user.FailedLoginAttempts}, ipAddress)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()

		if nowLocked {
			return nil, s.lockout.LockedError(user)
		}
		if s.lockout.ShouldWarn(user) {
			return nil, domainErrors.NewAppError(domainErrors.ErrInvalidCredentials,
				"invalid username or password", 401, "ATTEMPTS_WARNING")
		}
		return nil, domainErrors.ErrInvalidCredentials
	}

	if err := s.lockout.ResetOnSuccess(ctx, user); err != nil {
		s.logger.Error("Failed to reset lockout counter", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	now := s.now()
	session := &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to record last login", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	token, err := s.tokens.GenerateSessionToken(user, session.ID.String())
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, models.AuditLoginSuccess, models.AuditStatusSuccess, nil, ipAddress)
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Inc()

	result := &LoginResult{
		Token:     token,
		SessionID: session.ID,
		User:      user.ToResponse(),
	}
	if user.PasswordChangeRequired || s.policy.IsExpired(user) {
		result.PasswordChangePending = true
		result.GraceSeconds = s.policy.RemainingGraceSeconds(user, now)
	}
	return result, nil
}

// Logout terminates the session.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.Deactivate(ctx, sessionID); err != nil {
		return err
	}
	s.audit.Record(ctx, &userID, models.AuditLogout, models.AuditStatusSuccess, nil, ipAddress)
	metrics.ActiveSessions.Dec()
	return nil
}

// ChangePassword verifies the current password and stores a new hash. The
// rotation bookkeeping (last change date, forced flag) is updated in the same
// statement.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string, ipAddress *string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	match, err := s.passwords.CheckPasswordHash(oldPassword, user.PasswordHash)
	if err != nil {
		return domainErrors.ErrInternal
	}
	if !match {
		s.audit.Record(ctx, &userID, models.AuditPasswordChange, models.AuditStatusFailure,
			map[string]interface{}{"reason": "invalid_current_password"}, ipAddress)
		return domainErrors.ErrInvalidCredentials
	}

	minLength := s.cfg.MinPasswordLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}
	if len(newPassword) < minLength {
		return domainErrors.ErrWeakPassword
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		return err
	}

	s.audit.Record(ctx, &userID, models.AuditPasswordChange, models.AuditStatusSuccess, nil, ipAddress)
	return nil
}
