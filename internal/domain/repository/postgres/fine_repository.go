package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// FineRepositoryPostgres implements repository.FineRepository using PostgreSQL.
type FineRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewFineRepositoryPostgres creates a new instance of FineRepositoryPostgres.
func NewFineRepositoryPostgres(pool *pgxpool.Pool) *FineRepositoryPostgres {
	return &FineRepositoryPostgres{pool: pool}
}

const fineColumns = `id, borrowing_id, amount, days_overdue, fine_type, paid, paid_at, created_at`

func scanFine(row pgx.Row) (*models.Fine, error) {
	f := &models.Fine{}
	err := row.Scan(
		&f.ID, &f.BorrowingID, &f.Amount, &f.DaysOverdue, &f.FineType,
		&f.Paid, &f.PaidAt, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrFineNotFound
		}
		return nil, fmt.Errorf("failed to scan fine: %w", err)
	}
	return f, nil
}

// Create persists a new fine. The amount is never updated afterwards.
func (r *FineRepositoryPostgres) Create(ctx context.Context, f *models.Fine) error {
	query := `
		INSERT INTO fines (id, borrowing_id, amount, days_overdue, fine_type, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		f.ID, f.BorrowingID, f.Amount, f.DaysOverdue, f.FineType, f.Paid, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create fine: %w", err)
	}
	return nil
}

// FindByID retrieves a fine by ID.
func (r *FineRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE id = $1`
	return scanFine(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindByBorrowingID lists the fines attached to a borrowing.
func (r *FineRepositoryPostgres) FindByBorrowingID(ctx context.Context, borrowingID uuid.UUID) ([]*models.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines
		WHERE borrowing_id = $1 ORDER BY created_at`
	return r.queryMany(ctx, query, borrowingID)
}

// ListUnpaidByUserID lists a user's unpaid fines via their borrowings.
func (r *FineRepositoryPostgres) ListUnpaidByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Fine, error) {
	query := `
		SELECT f.id, f.borrowing_id, f.amount, f.days_overdue, f.fine_type,
		       f.paid, f.paid_at, f.created_at
		FROM fines f
		JOIN borrowings b ON b.id = f.borrowing_id
		WHERE b.user_id = $1 AND NOT f.paid
		ORDER BY f.created_at`
	return r.queryMany(ctx, query, userID)
}

// MarkPaid records payment of a fine. Paying twice is rejected.
func (r *FineRepositoryPostgres) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `UPDATE fines SET paid = TRUE, paid_at = $1 WHERE id = $2 AND NOT paid`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, paidAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark fine paid: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Distinguish a missing row from an already paid one.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return domainErrors.ErrFineAlreadyPaid
	}
	return nil
}

func (r *FineRepositoryPostgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Fine, error) {
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fines: %w", err)
	}
	defer rows.Close()

	var out []*models.Fine
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// BookRepositoryPostgres implements repository.BookRepository using PostgreSQL.
type BookRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewBookRepositoryPostgres creates a new instance of BookRepositoryPostgres.
func NewBookRepositoryPostgres(pool *pgxpool.Pool) *BookRepositoryPostgres {
	return &BookRepositoryPostgres{pool: pool}
}

// FindByID retrieves a book by ID.
func (r *BookRepositoryPostgres) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	query := `SELECT id, title, author, isbn, price, branch_id FROM books WHERE id = $1`
	b := &models.Book{}
	err := queryTarget(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Price, &b.BranchID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	return b, nil
}

// MembershipRepositoryPostgres implements repository.MembershipRepository using PostgreSQL.
type MembershipRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewMembershipRepositoryPostgres creates a new instance of MembershipRepositoryPostgres.
func NewMembershipRepositoryPostgres(pool *pgxpool.Pool) *MembershipRepositoryPostgres {
	return &MembershipRepositoryPostgres{pool: pool}
}

// FindByID retrieves a membership tier by ID.
func (r *MembershipRepositoryPostgres) FindByID(ctx context.Context, id int64) (*models.MembershipType, error) {
	query := `
		SELECT id, name, monthly_fee, annual_fee, max_books, loan_period_days, extension_days
		FROM membership_types WHERE id = $1
	`
	m := &models.MembershipType{}
	err := queryTarget(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.MonthlyFee, &m.AnnualFee, &m.MaxBooks, &m.LoanPeriodDays, &m.ExtensionDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership type: %w", err)
	}
	return m, nil
}
