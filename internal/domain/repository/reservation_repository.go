package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// ReservationRepository defines the interface for reservations.
type ReservationRepository interface {
	Create(ctx context.Context, r *models.Reservation) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)

	// FindLiveByUserAndBook returns the user's pending or confirmed
	// reservation of the book, or domainErrors.ErrReservationNotFound.
	FindLiveByUserAndBook(ctx context.Context, userID uuid.UUID, bookID int64) (*models.Reservation, error)

	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Reservation, error)

	Update(ctx context.Context, r *models.Reservation) error

	Delete(ctx context.Context, id uuid.UUID) error

	// FindConfirmedBefore returns confirmed reservations older than the
	// cutoff. Input to the reservation-expiry sweep.
	FindConfirmedBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error)
}
