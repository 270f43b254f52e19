package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user by ID. Returns domainErrors.ErrUserNotFound
	// if no user exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByUsername retrieves a user by username, with the membership tier
	// joined in when one is assigned.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	Update(ctx context.Context, user *models.User) error

	// UpdateLockState persists only the lockout fields. The lockout engine
	// calls this on every counted failure, lock, and unlock; a failure here
	// must surface so the caller can fail closed.
	UpdateLockState(ctx context.Context, id uuid.UUID, attempts int, lockedUntil, lastFailed *time.Time) error

	// UpdatePassword sets a new password hash together with the rotation
	// bookkeeping fields.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error

	// SetPasswordChangeRequired flips the forced-rotation flag.
	SetPasswordChangeRequired(ctx context.Context, id uuid.UUID, required bool) error

	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
