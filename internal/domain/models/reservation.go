package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus defines the lifecycle states of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// ReservationType distinguishes regular queue reservations from priority ones.
type ReservationType string

const (
	ReservationTypeRegular  ReservationType = "regular"
	ReservationTypePriority ReservationType = "priority"
)

// Reservation holds a member's claim on a currently unavailable book.
// A user may hold at most one live (pending or confirmed) reservation per book.
type Reservation struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	UserID    uuid.UUID         `json:"user_id" db:"user_id"`
	BookID    int64             `json:"book_id" db:"book_id"`
	Status    ReservationStatus `json:"status" db:"status"`
	Type      ReservationType   `json:"type" db:"type"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// Live reports whether the reservation still claims the book.
func (r *Reservation) Live() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}
