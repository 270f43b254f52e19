package models

import (
	"time"

	"github.com/google/uuid"
)

// BorrowingStatus defines the lifecycle states of a borrowing request.
type BorrowingStatus string

const (
	BorrowingStatusPending  BorrowingStatus = "pending"
	BorrowingStatusApproved BorrowingStatus = "approved"
	BorrowingStatusRejected BorrowingStatus = "rejected"
	BorrowingStatusBorrowed BorrowingStatus = "borrowed"
	BorrowingStatusOverdue  BorrowingStatus = "overdue"
	BorrowingStatusReturned BorrowingStatus = "returned"
	BorrowingStatusExpired  BorrowingStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s BorrowingStatus) Terminal() bool {
	switch s {
	case BorrowingStatusRejected, BorrowingStatusReturned, BorrowingStatusExpired:
		return true
	}
	return false
}

// PickupCodeLength is the length of the code a member presents in person to
// convert an approved request into an active loan.
const PickupCodeLength = 10

// Borrowing represents one borrowing request and, after pickup, the loan itself.
//
// Lifecycle: pending -> approved (pickup code issued) -> borrowed -> returned,
// with rejected, expired (pickup window missed) and the derived overdue state
// on the side. At most one non-terminal borrowing exists per (user, book).
type Borrowing struct {
	ID     uuid.UUID       `json:"id" db:"id"`
	UserID uuid.UUID       `json:"user_id" db:"user_id"`
	BookID int64           `json:"book_id" db:"book_id"`
	Status BorrowingStatus `json:"status" db:"status"`

	RequestDate  time.Time  `json:"request_date" db:"request_date"`
	ApprovedDate *time.Time `json:"approved_date,omitempty" db:"approved_date"`
	PickupCode   *string    `json:"-" db:"pickup_code"`
	PickupDate   *time.Time `json:"pickup_date,omitempty" db:"pickup_date"`
	DueDate      *time.Time `json:"due_date,omitempty" db:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty" db:"return_date"`

	RejectedBy     *uuid.UUID `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedDate   *time.Time `json:"rejected_date,omitempty" db:"rejected_date"`
	RejectedReason string     `json:"rejected_reason,omitempty" db:"rejected_reason"`

	IsExtended bool `json:"is_extended" db:"is_extended"`
}

// EffectiveStatus derives overdue for borrowed loans whose due date has
// passed. The stored status is only updated opportunistically.
func (b *Borrowing) EffectiveStatus(now time.Time) BorrowingStatus {
	if b.Status == BorrowingStatusBorrowed && b.DueDate != nil && now.After(*b.DueDate) {
		return BorrowingStatusOverdue
	}
	return b.Status
}

// Active reports whether the borrowing currently holds the book.
func (b *Borrowing) Active() bool {
	return b.Status == BorrowingStatusBorrowed || b.Status == BorrowingStatusOverdue
}

// ExtensionStatus defines the states of an extension request.
type ExtensionStatus string

const (
	ExtensionStatusPending  ExtensionStatus = "pending"
	ExtensionStatusApproved ExtensionStatus = "approved"
	ExtensionStatusRejected ExtensionStatus = "rejected"
)

// ExtensionRequest asks for a one-time due-date extension of a borrowing.
// The borrowing_id column carries a unique constraint: one request per loan.
type ExtensionRequest struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	BorrowingID     uuid.UUID       `json:"borrowing_id" db:"borrowing_id"`
	RequestDate     time.Time       `json:"request_date" db:"request_date"`
	Status          ExtensionStatus `json:"status" db:"status"`
	DecidedBy       *uuid.UUID      `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty" db:"decided_at"`
	RejectionReason string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
}
