package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/utils/cache"
	"github.com/sudo-mko/Libsys/internal/utils/metrics"
)

// SettingsReader is the read side consumed by the session and borrowing
// services. The second return value reports whether a usable value was found;
// callers fall back to their configured default on false.
type SettingsReader interface {
	IntSetting(ctx context.Context, key string) (int, bool)
	DecimalSetting(ctx context.Context, key string) (decimal.Decimal, bool)
}

// SettingsService reads and writes runtime system settings with a short-lived
// Redis cache in front of the table. Every read failure degrades to "not
// found" so a broken cache or database never takes a request down.
type SettingsService struct {
	repo     repository.SettingRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	audit    AuditRecorder
	logger   *zap.Logger
}

// NewSettingsService creates a new settings service. cache may be nil.
func NewSettingsService(repo repository.SettingRepository, c *cache.Cache, cacheTTL time.Duration, audit AuditRecorder, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		audit:    audit,
		logger:   logger,
	}
}

func (s *SettingsService) rawSetting(ctx context.Context, key string) (string, bool) {
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, "setting:"+key); err == nil {
			metrics.CacheOperationsTotal.WithLabelValues("get", "hit").Inc()
			return value, true
		}
		metrics.CacheOperationsTotal.WithLabelValues("get", "miss").Inc()
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, "setting:"+key, setting.Value, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache setting", zap.Error(err), zap.String("key", key))
		}
	}
	return setting.Value, true
}

// IntSetting returns the integer value of a setting.
func (s *SettingsService) IntSetting(ctx context.Context, key string) (int, bool) {
	raw, ok := s.rawSetting(ctx, key)
	if !ok {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("Setting is not an integer", zap.String("key", key), zap.String("value", raw))
		return 0, false
	}
	return value, true
}

// DecimalSetting returns the decimal value of a setting.
func (s *SettingsService) DecimalSetting(ctx context.Context, key string) (decimal.Decimal, bool) {
	raw, ok := s.rawSetting(ctx, key)
	if !ok {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		s.logger.Warn("Setting is not a decimal", zap.String("key", key), zap.String("value", raw))
		return decimal.Zero, false
	}
	return value, true
}

// Set upserts a setting, invalidates its cache entry and audits the change.
func (s *SettingsService) Set(ctx context.Context, key, value string, settingType models.SettingType, description string, updatedBy uuid.UUID) (*models.SystemSetting, error) {
	setting := &models.SystemSetting{
		Key:         key,
		Value:       value,
		SettingType: settingType,
		Description: description,
		UpdatedBy:   &updatedBy,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, "setting:"+key); err != nil {
			s.logger.Warn("Failed to invalidate setting cache", zap.Error(err), zap.String("key", key))
		}
	}

	s.audit.Record(ctx, &updatedBy, models.AuditSettingUpdate, models.AuditStatusSuccess,
		map[string]interface{}{"key": key, "value": value}, nil)
	return setting, nil
}

// List returns all settings.
func (s *SettingsService) List(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.repo.List(ctx)
}

var _ SettingsReader = (*SettingsService)(nil)
