package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

func newPolicyFixture(t *testing.T) (*PasswordPolicyService, *MockUserRepository, *captureAudit) {
	t.Helper()
	users := new(MockUserRepository)
	audit := &captureAudit{}
	cfg := config.PasswordPolicyConfig{
		ExpiryDays:      180,
		AdminGraceDelay: 60 * time.Second,
	}
	return NewPasswordPolicyService(users, audit, cfg, zap.NewNop()), users, audit
}

func userWithRole(role models.Role, changedDaysAgo int) *models.User {
	changed := time.Now().AddDate(0, 0, -changedDaysAgo)
	return &models.User{
		ID:                 uuid.New(),
		Role:               role,
		LastPasswordChange: &changed,
	}
}

func TestApplies_OnlyElevatedRoles(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)

	assert.False(t, svc.Applies(&models.User{Role: models.RoleMember}))
	assert.False(t, svc.Applies(&models.User{Role: models.RoleLibrarian}))
	assert.True(t, svc.Applies(&models.User{Role: models.RoleManager}))
	assert.True(t, svc.Applies(&models.User{Role: models.RoleAdmin}))
}

func TestIsExpired(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)

	assert.False(t, svc.IsExpired(userWithRole(models.RoleManager, 30)))
	assert.False(t, svc.IsExpired(userWithRole(models.RoleManager, 179)))
	assert.True(t, svc.IsExpired(userWithRole(models.RoleManager, 181)))
	assert.True(t, svc.IsExpired(userWithRole(models.RoleAdmin, 365)))

	// Members never expire no matter how old the password is.
	assert.False(t, svc.IsExpired(userWithRole(models.RoleMember, 400)))

	// No recorded change date counts as expired for an elevated role.
	never := &models.User{ID: uuid.New(), Role: models.RoleManager}
	assert.True(t, svc.IsExpired(never))
}

func TestShouldForceChange_ManagerHasNoGrace(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)
	manager := userWithRole(models.RoleManager, 200)

	loginAt := time.Now()
	assert.True(t, svc.ShouldForceChange(manager, loginAt),
		"an expired manager password blocks immediately")
}

func TestShouldForceChange_AdminGraceWindow(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	admin := userWithRole(models.RoleAdmin, 200)

	// Inside the 60-second window the admin may still act.
	assert.False(t, svc.ShouldForceChange(admin, now.Add(-30*time.Second)))

	// Once the window passes the change is forced.
	assert.True(t, svc.ShouldForceChange(admin, now.Add(-61*time.Second)))
}

func TestShouldForceChange_ExplicitFlag(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)

	member := userWithRole(models.RoleMember, 10)
	member.PasswordChangeRequired = true
	assert.True(t, svc.ShouldForceChange(member, time.Now()),
		"the manual flag applies to every role with no grace")

	fresh := userWithRole(models.RoleAdmin, 10)
	assert.False(t, svc.ShouldForceChange(fresh, time.Now()))
}

func TestRemainingGraceSeconds(t *testing.T) {
	svc, _, _ := newPolicyFixture(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	admin := userWithRole(models.RoleAdmin, 200)
	manager := userWithRole(models.RoleManager, 200)

	assert.Equal(t, 60, svc.RemainingGraceSeconds(admin, now))
	assert.Equal(t, 30, svc.RemainingGraceSeconds(admin, now.Add(-30*time.Second)))
	assert.Equal(t, 0, svc.RemainingGraceSeconds(admin, now.Add(-2*time.Minute)))
	assert.Equal(t, 0, svc.RemainingGraceSeconds(manager, now))

	// Partial seconds round up so the client never undershoots the deadline.
	assert.Equal(t, 31, svc.RemainingGraceSeconds(admin, now.Add(-30*time.Second+500*time.Millisecond)))
}

func TestForceChange(t *testing.T) {
	svc, users, audit := newPolicyFixture(t)
	target, admin := uuid.New(), uuid.New()

	users.On("SetPasswordChangeRequired", mock.Anything, target, true).Return(nil).Once()

	require.NoError(t, svc.ForceChange(context.Background(), target, admin))
	assert.True(t, audit.has(models.AuditPasswordChange))
	users.AssertExpectations(t)
}
