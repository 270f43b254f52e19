package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// FineRepository defines the interface for fines. Amounts are immutable after
// creation; only payment status changes.
type FineRepository interface {
	Create(ctx context.Context, f *models.Fine) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Fine, error)

	FindByBorrowingID(ctx context.Context, borrowingID uuid.UUID) ([]*models.Fine, error)

	ListUnpaidByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Fine, error)

	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

// BookRepository provides the catalogue lookups the workflow needs.
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Book, error)
}

// MembershipRepository provides membership tier lookups.
type MembershipRepository interface {
	FindByID(ctx context.Context, id int64) (*models.MembershipType, error)
}
