package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
)

// PasswordPolicyService enforces rotation for elevated roles. Members and
// librarians are exempt; managers must change immediately once expired, and
// admins get a short grace window after login before the change is forced.
type PasswordPolicyService struct {
	users  repository.UserRepository
	audit  AuditRecorder
	cfg    config.PasswordPolicyConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewPasswordPolicyService creates a new password policy service.
func NewPasswordPolicyService(users repository.UserRepository, audit AuditRecorder, cfg config.PasswordPolicyConfig, logger *zap.Logger) *PasswordPolicyService {
	return &PasswordPolicyService{
		users:  users,
		audit:  audit,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Applies reports whether the rotation policy covers this user.
func (s *PasswordPolicyService) Applies(user *models.User) bool {
	return user.Role.Elevated()
}

// IsExpired reports whether the password is past the rotation deadline. An
// account with no recorded change date counts as expired.
func (s *PasswordPolicyService) IsExpired(user *models.User) bool {
	if !s.Applies(user) {
		return false
	}
	if user.LastPasswordChange == nil {
		return true
	}
	deadline := user.LastPasswordChange.AddDate(0, 0, s.cfg.ExpiryDays)
	return s.now().After(deadline)
}

// ShouldForceChange reports whether the user must change their password
// before proceeding. loginAt is when the current session was authenticated;
// admins are not forced while still inside the grace window measured from it.
// The grace applies to admins only, never managers.
func (s *PasswordPolicyService) ShouldForceChange(user *models.User, loginAt time.Time) bool {
	pending := user.PasswordChangeRequired || s.IsExpired(user)
	if !pending {
		return false
	}
	if user.Role == models.RoleAdmin && s.now().Before(loginAt.Add(s.cfg.AdminGraceDelay)) {
		return false
	}
	return true
}

// RemainingGraceSeconds returns the whole seconds of admin grace left,
// rounded up. Zero for non-admins or once the window has passed.
func (s *PasswordPolicyService) RemainingGraceSeconds(user *models.User, loginAt time.Time) int {
	if user.Role != models.RoleAdmin {
		return 0
	}
	remaining := loginAt.Add(s.cfg.AdminGraceDelay).Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	secs := int(remaining / time.Second)
	if remaining%time.Second > 0 {
		secs++
	}
	return secs
}

// ForceChange flags the account so the next request demands a new password.
func (s *PasswordPolicyService) ForceChange(ctx context.Context, userID uuid.UUID, forcedBy uuid.UUID) error {
	if err := s.users.SetPasswordChangeRequired(ctx, userID, true); err != nil {
		return err
	}
	s.audit.Record(ctx, &forcedBy, models.AuditPasswordChange, models.AuditStatusSuccess,
		map[string]interface{}{"target_user_id": userID.String(), "forced": true}, nil)
	return nil
}
