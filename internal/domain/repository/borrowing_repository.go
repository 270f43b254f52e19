package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// BorrowingRepository defines the interface for borrowing records.
type BorrowingRepository interface {
	Create(ctx context.Context, b *models.Borrowing) error

	// FindByID returns domainErrors.ErrBorrowingNotFound if no row exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error)

	// FindByPickupCode looks up an approved borrowing by its outstanding
	// pickup code. Returns domainErrors.ErrPickupCodeNotFound when absent.
	FindByPickupCode(ctx context.Context, code string) (*models.Borrowing, error)

	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Borrowing, error)

	// FindNonTerminalByUserAndBook returns the user's live borrowing of the
	// book (pending/approved/borrowed/overdue), or ErrBorrowingNotFound.
	FindNonTerminalByUserAndBook(ctx context.Context, userID uuid.UUID, bookID int64) (*models.Borrowing, error)

	// CountActiveByBook counts borrowings of the book in borrowed/overdue
	// status. Used inside the approval transaction.
	CountActiveByBook(ctx context.Context, bookID int64) (int, error)

	// CountApprovedByBook counts borrowings of the book with an outstanding
	// pickup code.
	CountApprovedByBook(ctx context.Context, bookID int64) (int, error)

	// PickupCodeExists reports whether any outstanding borrowing carries the
	// code. Used by rejection-sampling code generation.
	PickupCodeExists(ctx context.Context, code string) (bool, error)

	Update(ctx context.Context, b *models.Borrowing) error

	// FindApprovedBefore returns approved borrowings whose approval is older
	// than the cutoff. Input to the pickup-expiry sweep.
	FindApprovedBefore(ctx context.Context, cutoff time.Time) ([]*models.Borrowing, error)

	ListByStatus(ctx context.Context, status models.BorrowingStatus) ([]*models.Borrowing, error)
}

// ExtensionRequestRepository defines the interface for extension requests.
type ExtensionRequestRepository interface {
	// Create persists a new request. The unique borrowing_id constraint makes
	// a duplicate surface as domainErrors.ErrDuplicateExtension.
	Create(ctx context.Context, req *models.ExtensionRequest) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.ExtensionRequest, error)

	FindByBorrowingID(ctx context.Context, borrowingID uuid.UUID) (*models.ExtensionRequest, error)

	Update(ctx context.Context, req *models.ExtensionRequest) error

	ListPending(ctx context.Context) ([]*models.ExtensionRequest, error)
}
