package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FineType distinguishes overdue penalties from damaged/lost-book charges.
type FineType string

const (
	FineTypeOverdue FineType = "overdue"
	FineTypeDamaged FineType = "damaged"
)

// Fine is a penalty attached to a borrowing. The amount is immutable once
// created; only the payment status may change afterwards.
type Fine struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	BorrowingID uuid.UUID       `json:"borrowing_id" db:"borrowing_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	DaysOverdue int             `json:"days_overdue" db:"days_overdue"`
	FineType    FineType        `json:"fine_type" db:"fine_type"`
	Paid        bool            `json:"paid" db:"paid"`
	PaidAt      *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
