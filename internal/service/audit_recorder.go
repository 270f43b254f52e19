package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/utils/metrics"
)

// AuditRecorder appends security and workflow events to the audit trail.
// Recording never fails the operation being audited.
type AuditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, action string, status models.AuditStatus, details map[string]interface{}, ipAddress *string)
}

// auditPublisher mirrors audit records to an event stream.
type auditPublisher interface {
	Publish(entry *models.AuditLog) error
}

// Recorder is the production AuditRecorder: one row in the audit_logs table
// and, when a publisher is wired, a copy on the audit topic.
type Recorder struct {
	repo      repository.AuditLogRepository
	publisher auditPublisher
	logger    *zap.Logger
}

// NewRecorder creates a new audit recorder. publisher may be nil.
func NewRecorder(repo repository.AuditLogRepository, publisher auditPublisher, logger *zap.Logger) *Recorder {
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Record writes the audit entry. Failures are logged and counted, never
// returned: an unavailable audit sink must not take the login path down
// with it.
func (r *Recorder) Record(ctx context.Context, userID *uuid.UUID, action string, status models.AuditStatus, details map[string]interface{}, ipAddress *string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Status:    status,
		IPAddress: ipAddress,
	}

	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			r.logger.Error("Failed to marshal audit details", zap.Error(err), zap.String("action", action))
		} else {
			entry.Details = payload
		}
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		r.logger.Error("Failed to write audit log",
			zap.Error(err),
			zap.String("action", action),
			zap.String("status", string(status)),
		)
		return
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(entry); err != nil {
			r.logger.Error("Failed to publish audit event", zap.Error(err), zap.String("action", action))
		}
	}
}

var _ AuditRecorder = (*Recorder)(nil)
