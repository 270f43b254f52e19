package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// ExtensionRepositoryPostgres implements repository.ExtensionRequestRepository using PostgreSQL.
type ExtensionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewExtensionRepositoryPostgres creates a new instance of ExtensionRepositoryPostgres.
func NewExtensionRepositoryPostgres(pool *pgxpool.Pool) *ExtensionRepositoryPostgres {
	return &ExtensionRepositoryPostgres{pool: pool}
}

const extensionColumns = `id, borrowing_id, request_date, status, decided_by, decided_at, rejection_reason`

func scanExtension(row pgx.Row) (*models.ExtensionRequest, error) {
	req := &models.ExtensionRequest{}
	var reason *string
	err := row.Scan(
		&req.ID, &req.BorrowingID, &req.RequestDate, &req.Status,
		&req.DecidedBy, &req.DecidedAt, &reason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrExtensionNotFound
		}
		return nil, fmt.Errorf("failed to scan extension request: %w", err)
	}
	if reason != nil {
		req.RejectionReason = *reason
	}
	return req, nil
}

// Create persists a new extension request. The partial unique index on
// pending rows turns a second undecided request for the same loan into
// ErrDuplicateExtension; a rejected request does not block a new one.
func (r *ExtensionRepositoryPostgres) Create(ctx context.Context, req *models.ExtensionRequest) error {
	query := `
		INSERT INTO extension_requests (id, borrowing_id, request_date, status)
		VALUES ($1, $2, $3, $4)
	`
	if req.RequestDate.IsZero() {
		req.RequestDate = time.Now()
	}
	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		req.ID, req.BorrowingID, req.RequestDate, req.Status,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateExtension
		}
		return fmt.Errorf("failed to create extension request: %w", err)
	}
	return nil
}

// FindByID retrieves an extension request by ID.
func (r *ExtensionRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests WHERE id = $1`
	return scanExtension(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindByBorrowingID retrieves the request attached to a borrowing.
func (r *ExtensionRepositoryPostgres) FindByBorrowingID(ctx context.Context, borrowingID uuid.UUID) (*models.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests WHERE borrowing_id = $1`
	return scanExtension(queryTarget(ctx, r.pool).QueryRow(ctx, query, borrowingID))
}

// Update persists the decision fields.
func (r *ExtensionRepositoryPostgres) Update(ctx context.Context, req *models.ExtensionRequest) error {
	query := `
		UPDATE extension_requests
		SET status = $1, decided_by = $2, decided_at = $3, rejection_reason = $4
		WHERE id = $5
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		req.Status, req.DecidedBy, req.DecidedAt, nullIfEmpty(req.RejectionReason), req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update extension request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrExtensionNotFound
	}
	return nil
}

// ListPending lists undecided extension requests, oldest first.
func (r *ExtensionRepositoryPostgres) ListPending(ctx context.Context) ([]*models.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests
		WHERE status = 'pending' ORDER BY request_date`
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query extension requests: %w", err)
	}
	defer rows.Close()

	var out []*models.ExtensionRequest
	for rows.Next() {
		req, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
