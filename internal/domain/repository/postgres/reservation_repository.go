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

// ReservationRepositoryPostgres implements repository.ReservationRepository using PostgreSQL.
type ReservationRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewReservationRepositoryPostgres creates a new instance of ReservationRepositoryPostgres.
func NewReservationRepositoryPostgres(pool *pgxpool.Pool) *ReservationRepositoryPostgres {
	return &ReservationRepositoryPostgres{pool: pool}
}

const reservationColumns = `id, user_id, book_id, status, type, created_at, updated_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	res := &models.Reservation{}
	err := row.Scan(
		&res.ID, &res.UserID, &res.BookID, &res.Status, &res.Type,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}
	return res, nil
}

// Create persists a new reservation.
func (r *ReservationRepositoryPostgres) Create(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (id, user_id, book_id, status, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		res.ID, res.UserID, res.BookID, res.Status, res.Type, res.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateReservation
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// FindByID retrieves a reservation by ID.
func (r *ReservationRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindLiveByUserAndBook returns the user's pending or confirmed reservation of the book.
func (r *ReservationRepositoryPostgres) FindLiveByUserAndBook(ctx context.Context, userID uuid.UUID, bookID int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE user_id = $1 AND book_id = $2 AND status IN ('pending', 'confirmed')
		LIMIT 1`
	return scanReservation(queryTarget(ctx, r.pool).QueryRow(ctx, query, userID, bookID))
}

// FindByUserID lists a user's reservations, newest first.
func (r *ReservationRepositoryPostgres) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryMany(ctx, query, userID)
}

// Update persists reservation state changes.
func (r *ReservationRepositoryPostgres) Update(ctx context.Context, res *models.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $1, type = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, res.Status, res.Type, res.ID)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrReservationNotFound
	}
	return nil
}

// Delete removes a reservation.
func (r *ReservationRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reservations WHERE id = $1`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrReservationNotFound
	}
	return nil
}

// FindConfirmedBefore returns confirmed reservations older than the cutoff.
func (r *ReservationRepositoryPostgres) FindConfirmedBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = 'confirmed' AND updated_at < $1`
	return r.queryMany(ctx, query, cutoff)
}

func (r *ReservationRepositoryPostgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
