package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/utils/metrics"
)

// LockoutService implements the failed-attempt counter and the timed account
// lock. Locks expire lazily: nothing runs in the background, the next
// IsLocked call after the deadline clears the lock.
type LockoutService struct {
	users  repository.UserRepository
	audit  AuditRecorder
	cfg    config.LockoutConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewLockoutService creates a new lockout service.
func NewLockoutService(users repository.UserRepository, audit AuditRecorder, cfg config.LockoutConfig, logger *zap.Logger) *LockoutService {
	return &LockoutService{
		users:  users,
		audit:  audit,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// affected reports whether the automatic counter applies to this user's role.
// Staff roles are governed by manual locks only.
func (s *LockoutService) affected(user *models.User) bool {
	for _, role := range s.cfg.AffectedRoles {
		if role == string(user.Role) {
			return true
		}
	}
	return false
}

// RecordFailedAttempt increments the counter and locks the account when the
// threshold is reached. Returns true when this attempt triggered the lock.
// The user struct is updated in place alongside the stored row.
func (s *LockoutService) RecordFailedAttempt(ctx context.Context, user *models.User) (bool, error) {
	if !s.affected(user) {
		return false, nil
	}

	now := s.now()
	user.FailedLoginAttempts++
	user.LastFailedAttempt = &now

	locked := false
	if user.FailedLoginAttempts >= s.cfg.MaxFailedAttempts {
		until := now.Add(s.cfg.LockDuration)
		user.AccountLockedUntil = &until
		locked = true
	}

	if err := s.users.UpdateLockState(ctx, user.ID, user.FailedLoginAttempts, user.AccountLockedUntil, user.LastFailedAttempt); err != nil {
		return false, err
	}

	if locked {
		metrics.AccountLockoutsTotal.Inc()
		s.logger.Warn("Account locked after repeated failed logins",
			zap.String("user_id", user.ID.String()),
			zap.Int("attempts", user.FailedLoginAttempts),
		)
		s.audit.Record(ctx, &user.ID, models.AuditAccountLocked, models.AuditStatusSuccess,
			map[string]interface{}{"attempts": user.FailedLoginAttempts, "locked_until": user.AccountLockedUntil}, nil)
	}
	return locked, nil
}

// IsLocked reports whether the account is currently locked. An expired lock
// is cleared here, counter included, so the next failed attempt starts from
// one. A persistence failure during the clear is returned to the caller,
// which must treat the account as still locked.
func (s *LockoutService) IsLocked(ctx context.Context, user *models.User) (bool, error) {
	if user.AccountLockedUntil == nil {
		return false, nil
	}
	if s.now().Before(*user.AccountLockedUntil) {
		return true, nil
	}

	if err := s.users.UpdateLockState(ctx, user.ID, 0, nil, nil); err != nil {
		return true, err
	}
	user.FailedLoginAttempts = 0
	user.AccountLockedUntil = nil
	user.LastFailedAttempt = nil

	s.audit.Record(ctx, &user.ID, models.AuditAccountUnlocked, models.AuditStatusSuccess,
		map[string]interface{}{"reason": "lock_expired"}, nil)
	return false, nil
}

// ResetOnSuccess clears the counter after a successful authentication.
func (s *LockoutService) ResetOnSuccess(ctx context.Context, user *models.User) error {
	if user.FailedLoginAttempts == 0 && user.AccountLockedUntil == nil && user.LastFailedAttempt == nil {
		return nil
	}
	if err := s.users.UpdateLockState(ctx, user.ID, 0, nil, nil); err != nil {
		return err
	}
	user.FailedLoginAttempts = 0
	user.AccountLockedUntil = nil
	user.LastFailedAttempt = nil
	return nil
}

// ShouldWarn reports whether the user has crossed the warning threshold but
// not yet the lock threshold.
func (s *LockoutService) ShouldWarn(user *models.User) bool {
	return s.affected(user) &&
		user.FailedLoginAttempts >= s.cfg.WarningThreshold &&
		user.FailedLoginAttempts < s.cfg.MaxFailedAttempts
}

// AttemptsRemaining returns how many failed attempts are left before the lock.
func (s *LockoutService) AttemptsRemaining(user *models.User) int {
	remaining := s.cfg.MaxFailedAttempts - user.FailedLoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingLockSeconds returns the whole seconds until the lock expires,
// rounded up. Zero when not locked.
func (s *LockoutService) RemainingLockSeconds(user *models.User) int {
	if user.AccountLockedUntil == nil {
		return 0
	}
	remaining := user.AccountLockedUntil.Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	secs := int(remaining / time.Second)
	if remaining%time.Second > 0 {
		secs++
	}
	return secs
}

// ManualLock locks an account for the given duration regardless of role.
// A non-positive duration uses the configured manual default.
func (s *LockoutService) ManualLock(ctx context.Context, userID uuid.UUID, duration time.Duration, lockedBy uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if duration <= 0 {
		duration = s.cfg.ManualLockDuration
	}
	until := s.now().Add(duration)
	if err := s.users.UpdateLockState(ctx, user.ID, user.FailedLoginAttempts, &until, user.LastFailedAttempt); err != nil {
		return err
	}

	s.audit.Record(ctx, &lockedBy, models.AuditAccountLocked, models.AuditStatusSuccess,
		map[string]interface{}{"target_user_id": userID.String(), "locked_until": until, "manual": true}, nil)
	return nil
}

// ManualUnlock clears any lock and counter on the account.
func (s *LockoutService) ManualUnlock(ctx context.Context, userID uuid.UUID, unlockedBy uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.UpdateLockState(ctx, userID, 0, nil, nil); err != nil {
		return err
	}

	s.audit.Record(ctx, &unlockedBy, models.AuditAccountUnlocked, models.AuditStatusSuccess,
		map[string]interface{}{"target_user_id": userID.String(), "manual": true}, nil)
	return nil
}

// LockedError builds the user-facing lockout error with the remaining time.
// The message never reveals which attempt triggered the lock.
func (s *LockoutService) LockedError(user *models.User) error {
	return domainErrors.NewAppError(domainErrors.ErrAccountLocked,
		fmt.Sprintf("account temporarily locked, try again in %d seconds", s.RemainingLockSeconds(user)),
		401, "ACCOUNT_LOCKED")
}
