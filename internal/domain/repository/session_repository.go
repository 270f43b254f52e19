package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// SessionRepository defines the interface for session records.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error

	// FindByID returns domainErrors.ErrSessionNotFound if no session exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)

	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Session, error)

	// FindActive lists every active session. Input to the timeout sweep.
	FindActive(ctx context.Context) ([]*models.Session, error)

	// Touch advances last_activity. Called at most once per request.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// Deactivate marks the session inactive (logout or detected timeout).
	Deactivate(ctx context.Context, id uuid.UUID) error

	DeactivateAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteInactiveBefore removes long-dead session rows. Used by the
	// on-demand sweep, not by request handling.
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
