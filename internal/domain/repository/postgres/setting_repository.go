package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// SettingRepositoryPostgres implements repository.SettingRepository using PostgreSQL.
type SettingRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSettingRepositoryPostgres creates a new instance of SettingRepositoryPostgres.
func NewSettingRepositoryPostgres(pool *pgxpool.Pool) *SettingRepositoryPostgres {
	return &SettingRepositoryPostgres{pool: pool}
}

const settingColumns = `id, key, value, setting_type, description, updated_by, updated_at`

func scanSetting(row pgx.Row) (*models.SystemSetting, error) {
	s := &models.SystemSetting{}
	err := row.Scan(
		&s.ID, &s.Key, &s.Value, &s.SettingType, &s.Description, &s.UpdatedBy, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan setting: %w", err)
	}
	return s, nil
}

// Get retrieves a setting by key.
func (r *SettingRepositoryPostgres) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM system_settings WHERE key = $1`
	return scanSetting(queryTarget(ctx, r.pool).QueryRow(ctx, query, key))
}

// Upsert inserts or replaces a setting by key.
func (r *SettingRepositoryPostgres) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	query := `
		INSERT INTO system_settings (key, value, setting_type, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, setting_type = EXCLUDED.setting_type,
		    description = EXCLUDED.description, updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING id, updated_at
	`
	err := queryTarget(ctx, r.pool).QueryRow(ctx, query,
		setting.Key, setting.Value, setting.SettingType, setting.Description, setting.UpdatedBy,
	).Scan(&setting.ID, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// List returns all settings ordered by key.
func (r *SettingRepositoryPostgres) List(ctx context.Context) ([]*models.SystemSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM system_settings ORDER BY key`
	rows, err := queryTarget(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var out []*models.SystemSetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
