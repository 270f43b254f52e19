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

// SessionRepositoryPostgres implements repository.SessionRepository using PostgreSQL.
type SessionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSessionRepositoryPostgres creates a new instance of SessionRepositoryPostgres.
func NewSessionRepositoryPostgres(pool *pgxpool.Pool) *SessionRepositoryPostgres {
	return &SessionRepositoryPostgres{pool: pool}
}

const sessionColumns = `id, user_id, ip_address, user_agent, timeout_minutes,
	       created_at, last_activity, is_active`

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &s.TimeoutMinutes,
		&s.CreatedAt, &s.LastActivity, &s.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return s, nil
}

// Create persists a new session record.
func (r *SessionRepositoryPostgres) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, ip_address, user_agent, timeout_minutes,
		                      created_at, last_activity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		session.ID, session.UserID, session.IPAddress, session.UserAgent,
		session.TimeoutMinutes, session.CreatedAt, session.LastActivity, session.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID retrieves a session by ID.
func (r *SessionRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindActiveByUserID lists the user's active sessions, most recent first.
func (r *SessionRepositoryPostgres) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = $1 AND is_active ORDER BY last_activity DESC`
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// FindActive lists every active session, oldest activity first.
func (r *SessionRepositoryPostgres) FindActive(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE is_active ORDER BY last_activity`
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Touch advances last_activity.
func (r *SessionRepositoryPostgres) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE sessions SET last_activity = $1 WHERE id = $2 AND is_active`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Deactivate marks the session inactive.
func (r *SessionRepositoryPostgres) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE id = $1`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// DeactivateAllByUserID marks all of a user's sessions inactive.
func (r *SessionRepositoryPostgres) DeactivateAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteInactiveBefore removes inactive sessions last seen before the cutoff.
func (r *SessionRepositoryPostgres) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE NOT is_active AND last_activity < $1`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
