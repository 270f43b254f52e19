package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditStatus defines the possible outcomes recorded for an audited action.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// Audit action tags. The audit log is append-only; rows are never mutated.
const (
	AuditLoginSuccess    = "LOGIN_SUCCESS"
	AuditLoginFailed     = "LOGIN_FAILED"
	AuditLogout          = "LOGOUT"
	AuditSessionTimeout  = "SESSION_TIMEOUT"
	AuditPasswordChange  = "PASSWORD_CHANGE"
	AuditAccountLocked   = "ACCOUNT_LOCKED"
	AuditAccountUnlocked = "ACCOUNT_UNLOCKED"

	AuditBorrowingRequest = "BORROWING_REQUEST"
	AuditBorrowingApprove = "BORROWING_APPROVE"
	AuditBorrowingReject  = "BORROWING_REJECT"
	AuditBookBorrow       = "BOOK_BORROW"
	AuditBookReturn       = "BOOK_RETURN"
	AuditPickupExpired    = "PICKUP_EXPIRED"

	AuditExtensionRequest = "EXTENSION_REQUEST"
	AuditExtensionApprove = "EXTENSION_APPROVE"
	AuditExtensionReject  = "EXTENSION_REJECT"

	AuditReservationCreate = "RESERVATION_CREATE"
	AuditReservationAppr   = "RESERVATION_APPROVE"
	AuditReservationReject = "RESERVATION_REJECT"
	AuditReservationExpire = "RESERVATION_EXPIRE"

	AuditFineCreate = "FINE_CREATE"
	AuditFinePaid   = "FINE_PAID"

	AuditSettingUpdate = "SETTING_UPDATE"
)

// AuditLog represents one append-only audit record.
type AuditLog struct {
	ID        int64           `json:"id" db:"id"` // BIGSERIAL
	UserID    *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action    string          `json:"action" db:"action"`
	Status    AuditStatus     `json:"status" db:"status"`
	IPAddress *string         `json:"ip_address,omitempty" db:"ip_address"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"` // JSONB
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
