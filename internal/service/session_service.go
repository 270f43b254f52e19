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

// fallbackTimeoutMinutes is the bottom of the resolution cascade when
// neither settings nor configuration produce a usable value.
const fallbackTimeoutMinutes = 15

// SessionService enforces inactivity timeouts. Expiry is lazy: nothing runs
// per-tick, the check happens on the next request that presents the session.
type SessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	settings SettingsReader
	audit    AuditRecorder
	cfg      config.SessionConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	settings SettingsReader,
	audit AuditRecorder,
	cfg config.SessionConfig,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		users:    users,
		settings: settings,
		audit:    audit,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ResolveTimeout resolves the inactivity timeout for a session. Cascade:
// per-session override, then the role's system setting, then the configured
// role default, then the global default. Each tier falls through silently on
// absence or error.
func (s *SessionService) ResolveTimeout(ctx context.Context, session *models.Session, role models.Role) time.Duration {
	if session.TimeoutMinutes > 0 {
		return time.Duration(session.TimeoutMinutes) * time.Minute
	}

	if s.settings != nil {
		key := fmt.Sprintf("%s_%s", role, models.SettingSessionTimeoutMinutes)
		if minutes, ok := s.settings.IntSetting(ctx, key); ok && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}

	if minutes, ok := s.cfg.RoleTimeoutMinutes[string(role)]; ok && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	if s.cfg.DefaultTimeoutMin > 0 {
		return time.Duration(s.cfg.DefaultTimeoutMin) * time.Minute
	}
	return fallbackTimeoutMinutes * time.Minute
}

// CheckAndTouch validates the session against its inactivity timeout. A
// session past the timeout is deactivated and reported as timed out; a valid
// one has its last-activity advanced exactly once. Inactive or unknown
// sessions return ErrSessionExpired / ErrSessionNotFound.
func (s *SessionService) CheckAndTouch(ctx context.Context, sessionID uuid.UUID) (models.SessionCheckResult, *models.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return models.CheckTimedOut, nil, err
	}
	if !session.IsActive {
		return models.CheckTimedOut, nil, domainErrors.ErrSessionExpired
	}

	role := models.RoleMember
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		// Resolution degrades to defaults; the session check itself proceeds.
		s.logger.Warn("Failed to load session user for timeout resolution",
			zap.Error(err), zap.String("session_id", sessionID.String()))
	} else {
		role = user.Role
	}

	now := s.now()
	timeout := s.ResolveTimeout(ctx, session, role)
	if now.Sub(session.LastActivity) > timeout {
		if err := s.sessions.Deactivate(ctx, session.ID); err != nil {
			return models.CheckTimedOut, nil, err
		}
		session.IsActive = false
		s.audit.Record(ctx, &session.UserID, models.AuditSessionTimeout, models.AuditStatusSuccess,
			map[string]interface{}{"session_id": session.ID.String(), "idle_minutes": int(now.Sub(session.LastActivity) / time.Minute)}, session.IPAddress)
		metrics.SessionTimeoutsTotal.Inc()
		metrics.ActiveSessions.Dec()
		return models.CheckTimedOut, session, nil
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		return models.CheckTimedOut, nil, err
	}
	session.LastActivity = now
	return models.CheckValid, session, nil
}

// TerminateAll deactivates every active session of a user. Used when an
// account is manually locked.
func (s *SessionService) TerminateAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessions.DeactivateAllByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	metrics.ActiveSessions.Sub(float64(count))
	return count, nil
}

// CleanupExpired sweeps all active sessions and deactivates the timed-out
// ones. Idempotent; safe to run concurrently with request traffic because
// each session is re-read and deactivation of an already inactive session is
// harmless. Returns the number of sessions expired.
func (s *SessionService) CleanupExpired(ctx context.Context) (int, error) {
	sessions, err := s.sessions.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	now := s.now()
	for _, session := range sessions {
		role := models.RoleMember
		if user, err := s.users.FindByID(ctx, session.UserID); err == nil {
			role = user.Role
		}
		timeout := s.ResolveTimeout(ctx, session, role)
		if now.Sub(session.LastActivity) <= timeout {
			continue
		}
		if err := s.sessions.Deactivate(ctx, session.ID); err != nil {
			s.logger.Error("Failed to deactivate expired session",
				zap.Error(err), zap.String("session_id", session.ID.String()))
			continue
		}
		s.audit.Record(ctx, &session.UserID, models.AuditSessionTimeout, models.AuditStatusSuccess,
			map[string]interface{}{"session_id": session.ID.String(), "sweep": true}, session.IPAddress)
		metrics.SessionTimeoutsTotal.Inc()
		metrics.ActiveSessions.Dec()
		expired++
	}
	return expired, nil
}
