package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
)

// FineService exposes fine queries and the payment path. Amounts are fixed at
// creation by the calculator; this service only ever flips payment status.
type FineService struct {
	fines  repository.FineRepository
	audit  AuditRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewFineService creates a new fine service.
func NewFineService(fines repository.FineRepository, audit AuditRecorder, logger *zap.Logger) *FineService {
	return &FineService{
		fines:  fines,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// ListUnpaid returns a user's outstanding fines.
func (s *FineService) ListUnpaid(ctx context.Context, userID uuid.UUID) ([]*models.Fine, error) {
	return s.fines.ListUnpaidByUserID(ctx, userID)
}

// Pay marks a fine paid. Paying twice surfaces ErrFineAlreadyPaid.
func (s *FineService) Pay(ctx context.Context, fineID, recordedBy uuid.UUID) error {
	if err := s.fines.MarkPaid(ctx, fineID, s.now()); err != nil {
		return err
	}
	s.audit.Record(ctx, &recordedBy, models.AuditFinePaid, models.AuditStatusSuccess,
		map[string]interface{}{"fine_id": fineID.String()}, nil)
	return nil
}
