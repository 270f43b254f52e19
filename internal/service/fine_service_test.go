package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
)

func TestListUnpaidFines(t *testing.T) {
	fines := new(MockFineRepository)
	svc := NewFineService(fines, &captureAudit{}, zap.NewNop())
	userID := uuid.New()

	expected := []*models.Fine{
		{ID: uuid.New(), Amount: decimal.RequireFromString("6.00"), FineType: models.FineTypeOverdue},
	}
	fines.On("ListUnpaidByUserID", mock.Anything, userID).Return(expected, nil).Once()

	got, err := svc.ListUnpaid(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestPayFine(t *testing.T) {
	fines := new(MockFineRepository)
	audit := &captureAudit{}
	svc := NewFineService(fines, audit, zap.NewNop())
	fineID, librarian := uuid.New(), uuid.New()

	fines.On("MarkPaid", mock.Anything, fineID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	require.NoError(t, svc.Pay(context.Background(), fineID, librarian))
	assert.True(t, audit.has(models.AuditFinePaid))
	fines.AssertExpectations(t)
}

func TestPayFine_AlreadyPaid(t *testing.T) {
	fines := new(MockFineRepository)
	audit := &captureAudit{}
	svc := NewFineService(fines, audit, zap.NewNop())
	fineID := uuid.New()

	fines.On("MarkPaid", mock.Anything, fineID, mock.AnythingOfType("time.Time")).
		Return(domainErrors.ErrFineAlreadyPaid).Once()

	err := svc.Pay(context.Background(), fineID, uuid.New())

	assert.ErrorIs(t, err, domainErrors.ErrFineAlreadyPaid)
	assert.False(t, audit.has(models.AuditFinePaid))
}
