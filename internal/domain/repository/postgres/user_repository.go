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

// UserRepositoryPostgres implements repository.UserRepository using PostgreSQL.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserRepositoryPostgres creates a new instance of UserRepositoryPostgres.
func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

const userColumns = `id, username, email, password_hash, phone_number, role, membership_id,
	       failed_login_attempts, account_locked_until, last_failed_attempt,
	       last_password_change, password_change_required, last_login_at,
	       created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.PhoneNumber,
		&user.Role, &user.MembershipID,
		&user.FailedLoginAttempts, &user.AccountLockedUntil, &user.LastFailedAttempt,
		&user.LastPasswordChange, &user.PasswordChangeRequired, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// Create persists a new user.
func (r *UserRepositoryPostgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, phone_number, role, membership_id,
		                   failed_login_attempts, account_locked_until, last_failed_attempt,
		                   last_password_change, password_change_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Role, user.MembershipID,
		user.FailedLoginAttempts, user.AccountLockedUntil, user.LastFailedAttempt,
		user.LastPasswordChange, user.PasswordChangeRequired, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "users_email") {
				return domainErrors.ErrEmailExists
			}
			if strings.Contains(pgErr.ConstraintName, "users_username") {
				return domainErrors.ErrUsernameExists
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their unique ID.
func (r *UserRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(queryTarget(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.attachMembership(ctx, user)
}

// FindByUsername retrieves a user by username.
func (r *UserRepositoryPostgres) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(queryTarget(ctx, r.pool).QueryRow(ctx, query, username))
	if err != nil {
		return nil, err
	}
	return r.attachMembership(ctx, user)
}

func (r *UserRepositoryPostgres) attachMembership(ctx context.Context, user *models.User) (*models.User, error) {
	if user.MembershipID == nil {
		return user, nil
	}
	query := `
		SELECT id, name, monthly_fee, annual_fee, max_books, loan_period_days, extension_days
		FROM membership_types WHERE id = $1
	`
	m := &models.MembershipType{}
	err := queryTarget(ctx, r.pool).QueryRow(ctx, query, *user.MembershipID).Scan(
		&m.ID, &m.Name, &m.MonthlyFee, &m.AnnualFee, &m.MaxBooks, &m.LoanPeriodDays, &m.ExtensionDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Tier rows can be removed by admins; the account stays usable.
			return user, nil
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	user.Membership = m
	return user, nil
}

// Update modifies an existing user's details.
func (r *UserRepositoryPostgres) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, phone_number = $3, role = $4, membership_id = $5,
		    updated_at = NOW()
		WHERE id = $6
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query,
		user.Username, user.Email, user.PhoneNumber, user.Role, user.MembershipID, user.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "users_email") {
				return domainErrors.ErrEmailExists
			}
			return domainErrors.ErrUsernameExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateLockState persists only the lockout fields.
func (r *UserRepositoryPostgres) UpdateLockState(ctx context.Context, id uuid.UUID, attempts int, lockedUntil, lastFailed *time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = $1, account_locked_until = $2, last_failed_attempt = $3,
		    updated_at = NOW()
		WHERE id = $4
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, attempts, lockedUntil, lastFailed, id)
	if err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdatePassword sets a new password hash and rotation bookkeeping.
func (r *UserRepositoryPostgres) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1, last_password_change = $2, password_change_required = FALSE,
		    updated_at = NOW()
		WHERE id = $3
	`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, passwordHash, changedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetPasswordChangeRequired flips the forced-rotation flag.
func (r *UserRepositoryPostgres) SetPasswordChangeRequired(ctx context.Context, id uuid.UUID, required bool) error {
	query := `UPDATE users SET password_change_required = $1, updated_at = NOW() WHERE id = $2`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, required, id)
	if err != nil {
		return fmt.Errorf("failed to set password change flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin records a successful authentication.
func (r *UserRepositoryPostgres) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2`
	result, err := queryTarget(ctx, r.pool).Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}
