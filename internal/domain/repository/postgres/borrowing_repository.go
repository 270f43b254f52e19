package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// BorrowingRepositoryPostgres implements repository.BorrowingRepository using PostgreSQL.
type BorrowingRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewBorrowingRepositoryPostgres creates a new instance of BorrowingRepositoryPostgres.
func NewBorrowingRepositoryPostgres(pool *pgxpool.Pool) *BorrowingRepositoryPostgres {
	return &BorrowingRepositoryPostgres{pool: pool}
}

const borrowingColumns = `id, user_id, book_id, status, request_date, approved_date,
	       pickup_code, pickup_date, due_date, return_date,
	       rejected_by, rejected_date, rejected_reason, is_extended`

func scanBorrowing(row pgx.Row) (*models.Borrowing, error) {
	b := &models.Borrowing{}
	var rejectedReason *string
	err := row.Scan(
		&b.ID, &b.UserID, &b.BookID, &b.Status, &b.RequestDate, &b.ApprovedDate,
		&b.PickupCode, &b.PickupDate, &b.DueDate, &b.ReturnDate,
		&b.RejectedBy, &b.RejectedDate, &rejectedReason, &b.IsExtended,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBorrowingNotFound
		}
		return nil, fmt.Errorf("failed to scan borrowing: %w", err)
	}
	if rejectedReason != nil {
		b.RejectedReason = *rejectedReason
	}
	return b, nil
}

// Create persists a new borrowing request.
func (r *BorrowingRepositoryPostgres) Create(ctx context.Context, b *models.Borrowing) error {
	query := `
		INSERT INTO borrowings (id, user_id, book_id, status, request_date, is_extended)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if b.RequestDate.IsZero() {
		b.RequestDate = time.Now()
	}
	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		b.ID, b.UserID, b.BookID, b.Status, b.RequestDate, b.IsExtended,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateBorrowing
		}
		return fmt.Errorf("failed to create borrowing: %w", err)
	}
	return nil
}

// FindByID retrieves a borrowing by ID.
func (r *BorrowingRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings WHERE id = $1`
	return scanBorrowing(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindByPickupCode looks up an approved borrowing by its outstanding code.
func (r *BorrowingRepositoryPostgres) FindByPickupCode(ctx context.Context, code string) (*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings
		WHERE pickup_code = $1 AND status = 'approved'`
	b, err := scanBorrowing(queryTarget(ctx, r.pool).QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, domainErrors.ErrBorrowingNotFound) {
			return nil, domainErrors.ErrPickupCodeNotFound
		}
		return nil, err
	}
	return b, nil
}

// FindByUserID lists a user's borrowings, most recent request first.
func (r *BorrowingRepositoryPostgres) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings
		WHERE user_id = $1 ORDER BY request_date DESC`
	return r.queryMany(ctx, query, userID)
}

// FindNonTerminalByUserAndBook returns the user's live borrowing of the book.
func (r *BorrowingRepositoryPostgres) FindNonTerminalByUserAndBook(ctx context.Context, userID uuid.UUID, bookID int64) (*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings
		WHERE user_id = $1 AND book_id = $2
		  AND status IN ('pending', 'approved', 'borrowed', 'overdue')
		LIMIT 1`
	return scanBorrowing(queryTarget(ctx, r.pool).QueryRow(ctx, query, userID, bookID))
}

// CountActiveByBook counts borrowed/overdue loans of the book. The count is
// advisory: under READ COMMITTED two approvals can both see zero, so the
// idx_borrowings_book_allocated partial unique index is what actually keeps a
// copy from being allocated twice; Update translates that violation.
func (r *BorrowingRepositoryPostgres) CountActiveByBook(ctx context.Context, bookID int64) (int, error) {
	query := `SELECT COUNT(*) FROM borrowings
		WHERE book_id = $1 AND status IN ('borrowed', 'overdue')`
	var count int
	if err := queryTarget(ctx, r.pool).QueryRow(ctx, query, bookID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active borrowings: %w", err)
	}
	return count, nil
}

// CountApprovedByBook counts approvals with an outstanding pickup code.
func (r *BorrowingRepositoryPostgres) CountApprovedByBook(ctx context.Context, bookID int64) (int, error) {
	query := `SELECT COUNT(*) FROM borrowings WHERE book_id = $1 AND status = 'approved'`
	var count int
	if err := queryTarget(ctx, r.pool).QueryRow(ctx, query, bookID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count approved borrowings: %w", err)
	}
	return count, nil
}

// PickupCodeExists reports whether any outstanding borrowing carries the code.
func (r *BorrowingRepositoryPostgres) PickupCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM borrowings WHERE pickup_code = $1)`
	var exists bool
	if err := queryTarget(ctx, r.pool).QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pickup code: %w", err)
	}
	return exists, nil
}

// Update persists the full mutable state of a borrowing.
func (r *BorrowingRepositoryPostgres) Update(ctx context.Context, b *models.Borrowing) error {
	query := `
		UPDATE borrowings
		SET status = $1, approved_date = $2, pickup_code = $3, pickup_date = $4,
		    due_date = $5, return_date = $6, rejected_by = $7, rejected_date = $8,
		    rejected_reason = $9, is_extended = $10
		WHERE id = $11
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		b.Status, b.ApprovedDate, b.PickupCode, b.PickupDate,
		b.DueDate, b.ReturnDate, b.RejectedBy, b.RejectedDate,
		nullIfEmpty(b.RejectedReason), b.IsExtended, b.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "book_allocated") {
				// Lost the race against a concurrent approval of the same copy.
				return domainErrors.ErrBookUnavailable
			}
			if strings.Contains(pgErr.ConstraintName, "pickup_code") {
				return domainErrors.ErrDuplicateBorrowing
			}
		}
		return fmt.Errorf("failed to update borrowing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrBorrowingNotFound
	}
	return nil
}

// FindApprovedBefore returns approvals older than the cutoff.
func (r *BorrowingRepositoryPostgres) FindApprovedBefore(ctx context.Context, cutoff time.Time) ([]*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings
		WHERE status = 'approved' AND approved_date < $1`
	return r.queryMany(ctx, query, cutoff)
}

// ListByStatus lists borrowings in the given stored status.
func (r *BorrowingRepositoryPostgres) ListByStatus(ctx context.Context, status models.BorrowingStatus) ([]*models.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings
		WHERE status = $1 ORDER BY request_date DESC`
	return r.queryMany(ctx, query, status)
}

func (r *BorrowingRepositoryPostgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Borrowing, error) {
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrowings: %w", err)
	}
	defer rows.Close()

	var out []*models.Borrowing
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
