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

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

func testLockoutConfig() config.LockoutConfig {
	return config.LockoutConfig{
		MaxFailedAttempts:  5,
		LockDuration:       15 * time.Minute,
		ManualLockDuration: time.Hour,
		WarningThreshold:   3,
		AffectedRoles:      []string{"member"},
	}
}

func newLockoutFixture(t *testing.T) (*LockoutService, *MockUserRepository, *captureAudit) {
	t.Helper()
	users := new(MockUserRepository)
	audit := &captureAudit{}
	svc := NewLockoutService(users, audit, testLockoutConfig(), zap.NewNop())
	return svc, users, audit
}

func memberWithAttempts(attempts int) *models.User {
	return &models.User{
		ID:                  uuid.New(),
		Username:            "reader",
		Role:                models.RoleMember,
		FailedLoginAttempts: attempts,
	}
}

func TestRecordFailedAttempt_IncrementsWithoutLocking(t *testing.T) {
	svc, users, audit := newLockoutFixture(t)
	user := memberWithAttempts(2)

	users.On("UpdateLockState", mock.Anything, user.ID, 3, (*time.Time)(nil), mock.AnythingOfType("*time.Time")).
		Return(nil).Once()

	locked, err := svc.RecordFailedAttempt(context.Background(), user)

	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 3, user.FailedLoginAttempts)
	assert.Nil(t, user.AccountLockedUntil)
	assert.False(t, audit.has(models.AuditAccountLocked))
	users.AssertExpectations(t)
}

func TestRecordFailedAttempt_LocksOnFifthFailure(t *testing.T) {
	svc, users, audit := newLockoutFixture(t)
	user := memberWithAttempts(4)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	users.On("UpdateLockState", mock.Anything, user.ID, 5, mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
		Return(nil).Once()

	locked, err := svc.RecordFailedAttempt(context.Background(), user)

	require.NoError(t, err)
	assert.True(t, locked)
	require.NotNil(t, user.AccountLockedUntil)
	assert.Equal(t, now.Add(15*time.Minute), *user.AccountLockedUntil)
	assert.True(t, audit.has(models.AuditAccountLocked))
	users.AssertExpectations(t)
}

func TestRecordFailedAttempt_StaffRolesAreNotCounted(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	for _, role := range []models.Role{models.RoleLibrarian, models.RoleManager, models.RoleAdmin} {
		user := memberWithAttempts(0)
		user.Role = role

		locked, err := svc.RecordFailedAttempt(context.Background(), user)

		require.NoError(t, err)
		assert.False(t, locked)
		assert.Equal(t, 0, user.FailedLoginAttempts)
	}
	users.AssertNotCalled(t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordFailedAttempt_PersistFailureSurfaces(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	user := memberWithAttempts(1)

	users.On("UpdateLockState", mock.Anything, user.ID, 2, (*time.Time)(nil), mock.AnythingOfType("*time.Time")).
		Return(errors.New("connection reset")).Once()

	locked, err := svc.RecordFailedAttempt(context.Background(), user)

	require.Error(t, err)
	assert.False(t, locked)
	users.AssertExpectations(t)
}

func TestIsLocked_ActiveLock(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	user := memberWithAttempts(5)
	until := time.Now().Add(10 * time.Minute)
	user.AccountLockedUntil = &until

	locked, err := svc.IsLocked(context.Background(), user)

	require.NoError(t, err)
	assert.True(t, locked)
	users.AssertNotCalled(t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIsLocked_ExpiredLockClearsLazily(t *testing.T) {
	svc, users, audit := newLockoutFixture(t)
	user := memberWithAttempts(5)
	until := time.Now().Add(-time.Minute)
	user.AccountLockedUntil = &until
	last := until.Add(-15 * time.Minute)
	user.LastFailedAttempt = &last

	users.On("UpdateLockState", mock.Anything, user.ID, 0, (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil).Once()

	locked, err := svc.IsLocked(context.Background(), user)

	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.AccountLockedUntil)
	assert.Nil(t, user.LastFailedAttempt)
	assert.True(t, audit.has(models.AuditAccountUnlocked))
	users.AssertExpectations(t)
}

func TestIsLocked_ClearFailureFailsClosed(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	user := memberWithAttempts(5)
	until := time.Now().Add(-time.Minute)
	user.AccountLockedUntil = &until

	users.On("UpdateLockState", mock.Anything, user.ID, 0, (*time.Time)(nil), (*time.Time)(nil)).
		Return(errors.New("write timeout")).Once()

	locked, err := svc.IsLocked(context.Background(), user)

	require.Error(t, err)
	assert.True(t, locked, "a failed unlock must leave the account locked")
	assert.Equal(t, 5, user.FailedLoginAttempts, "in-memory state must not be cleared on persist failure")
	users.AssertExpectations(t)
}

func TestResetOnSuccess_NoopWhenAlreadyClean(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	user := memberWithAttempts(0)

	require.NoError(t, svc.ResetOnSuccess(context.Background(), user))
	users.AssertNotCalled(t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetOnSuccess_ClearsCounter(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	user := memberWithAttempts(3)

	users.On("UpdateLockState", mock.Anything, user.ID, 0, (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil).Once()

	require.NoError(t, svc.ResetOnSuccess(context.Background(), user))
	assert.Equal(t, 0, user.FailedLoginAttempts)
	users.AssertExpectations(t)
}

func TestShouldWarn_Thresholds(t *testing.T) {
	svc, _, _ := newLockoutFixture(t)

	cases := []struct {
		attempts int
		warn     bool
	}{
		{0, false},
		{2, false},
		{3, true},
		{4, true},
		{5, false}, // at the lock threshold the account locks instead
	}
	for _, tc := range cases {
		user := memberWithAttempts(tc.attempts)
		assert.Equal(t, tc.warn, svc.ShouldWarn(user), "attempts=%d", tc.attempts)
	}

	staff := memberWithAttempts(4)
	staff.Role = models.RoleLibrarian
	assert.False(t, svc.ShouldWarn(staff))
}

func TestAttemptsRemaining(t *testing.T) {
	svc, _, _ := newLockoutFixture(t)

	assert.Equal(t, 5, svc.AttemptsRemaining(memberWithAttempts(0)))
	assert.Equal(t, 1, svc.AttemptsRemaining(memberWithAttempts(4)))
	assert.Equal(t, 0, svc.AttemptsRemaining(memberWithAttempts(7)))
}

func TestRemainingLockSeconds_RoundsUp(t *testing.T) {
	svc, _, _ := newLockoutFixture(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := memberWithAttempts(5)

	until := now.Add(90*time.Second + 200*time.Millisecond)
	user.AccountLockedUntil = &until
	assert.Equal(t, 91, svc.RemainingLockSeconds(user))

	exact := now.Add(90 * time.Second)
	user.AccountLockedUntil = &exact
	assert.Equal(t, 90, svc.RemainingLockSeconds(user))

	past := now.Add(-time.Second)
	user.AccountLockedUntil = &past
	assert.Equal(t, 0, svc.RemainingLockSeconds(user))

	user.AccountLockedUntil = nil
	assert.Equal(t, 0, svc.RemainingLockSeconds(user))
}

func TestManualLock_DefaultsDuration(t *testing.T) {
	svc, users, audit := newLockoutFixture(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	target := memberWithAttempts(0)
	target.Role = models.RoleLibrarian // manual locks apply to any role
	admin := uuid.New()

	users.On("FindByID", mock.Anything, target.ID).Return(target, nil).Once()
	users.On("UpdateLockState", mock.Anything, target.ID, 0, mock.MatchedBy(func(until *time.Time) bool {
		return until != nil && until.Equal(now.Add(time.Hour))
	}), (*time.Time)(nil)).Return(nil).Once()

	require.NoError(t, svc.ManualLock(context.Background(), target.ID, 0, admin))
	assert.True(t, audit.has(models.AuditAccountLocked))
	users.AssertExpectations(t)
}

func TestManualUnlock_UnknownUser(t *testing.T) {
	svc, users, _ := newLockoutFixture(t)
	id := uuid.New()

	users.On("FindByID", mock.Anything, id).Return(nil, domainErrors.ErrUserNotFound).Once()

	err := svc.ManualUnlock(context.Background(), id, uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
	users.AssertExpectations(t)
}

func TestLockedError_CarriesRemainingSeconds(t *testing.T) {
	svc, _, _ := newLockoutFixture(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := memberWithAttempts(5)
	until := now.Add(5 * time.Minute)
	user.AccountLockedUntil = &until

	err := svc.LockedError(user)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrAccountLocked)

	var appErr *domainErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode)
	assert.Equal(t, "ACCOUNT_LOCKED", appErr.Code)
	assert.Contains(t, appErr.Message, "300 seconds")
}
