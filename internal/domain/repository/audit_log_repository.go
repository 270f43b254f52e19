package repository

import (
	"context"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// AuditLogRepository is the append-only sink for audit records.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error

	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// SettingRepository reads and writes runtime system settings.
type SettingRepository interface {
	// Get returns domainErrors.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (*models.SystemSetting, error)

	Upsert(ctx context.Context, setting *models.SystemSetting) error

	List(ctx context.Context) ([]*models.SystemSetting, error)
}
