package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

func newSettingsFixture(t *testing.T) (*SettingsService, *MockSettingRepository, *captureAudit) {
	t.Helper()
	repo := new(MockSettingRepository)
	audit := &captureAudit{}
	svc := NewSettingsService(repo, nil, 5*time.Minute, audit, zap.NewNop())
	return svc, repo, audit
}

func TestIntSetting(t *testing.T) {
	svc, repo, _ := newSettingsFixture(t)

	repo.On("Get", mock.Anything, "pickup_code_expiry_days").
		Return(&models.SystemSetting{Key: "pickup_code_expiry_days", Value: "5", SettingType: models.SettingTypeNumber}, nil).Once()

	value, ok := svc.IntSetting(context.Background(), "pickup_code_expiry_days")

	assert.True(t, ok)
	assert.Equal(t, 5, value)
	repo.AssertExpectations(t)
}

func TestIntSetting_MissingKey(t *testing.T) {
	svc, repo, _ := newSettingsFixture(t)

	repo.On("Get", mock.Anything, "no_such_key").Return(nil, domainErrors.ErrNotFound).Once()

	_, ok := svc.IntSetting(context.Background(), "no_such_key")
	assert.False(t, ok)
}

func TestIntSetting_MalformedValueDegrades(t *testing.T) {
	svc, repo, _ := newSettingsFixture(t)

	repo.On("Get", mock.Anything, "session_timeout_minutes").
		Return(&models.SystemSetting{Key: "session_timeout_minutes", Value: "soon"}, nil).Once()

	_, ok := svc.IntSetting(context.Background(), "session_timeout_minutes")
	assert.False(t, ok, "a malformed value reads as absent, never as zero")
}

func TestIntSetting_RepoFailureDegrades(t *testing.T) {
	svc, repo, _ := newSettingsFixture(t)

	repo.On("Get", mock.Anything, "session_timeout_minutes").
		Return(nil, errors.New("connection refused")).Once()

	_, ok := svc.IntSetting(context.Background(), "session_timeout_minutes")
	assert.False(t, ok, "a broken settings store must fall through to config defaults")
}

func TestDecimalSetting(t *testing.T) {
	svc, repo, _ := newSettingsFixture(t)

	repo.On("Get", mock.Anything, "fine_tier_1_rate").
		Return(&models.SystemSetting{Key: "fine_tier_1_rate", Value: "2.00", SettingType: models.SettingTypeDecimal}, nil).Once()

	value, ok := svc.DecimalSetting(context.Background(), "fine_tier_1_rate")

	assert.True(t, ok)
	assert.Equal(t, "2", value.String())
}

func TestSetSetting_UpsertsAndAudits(t *testing.T) {
	svc, repo, audit := newSettingsFixture(t)
	admin := uuid.New()

	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SystemSetting")).Return(nil).Once()

	setting, err := svc.Set(context.Background(), "pickup_code_expiry_days", "5",
		models.SettingTypeNumber, "Days before an unclaimed pickup code expires", admin)

	require.NoError(t, err)
	assert.Equal(t, "5", setting.Value)
	require.NotNil(t, setting.UpdatedBy)
	assert.Equal(t, admin, *setting.UpdatedBy)
	assert.True(t, audit.has(models.AuditSettingUpdate))
	repo.AssertExpectations(t)
}
