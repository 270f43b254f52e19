package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an authenticated browsing session. One row is created on
// login and updated on every request that passes the activity check.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IPAddress *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent *string   `json:"user_agent,omitempty" db:"user_agent"`

	// TimeoutMinutes is a per-session override. Zero means the timeout is
	// resolved from system settings and role defaults at check time.
	TimeoutMinutes int `json:"timeout_minutes" db:"timeout_minutes"`

	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastActivity time.Time `json:"last_activity" db:"last_activity"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// SessionCheckResult is the outcome of a per-request activity check.
type SessionCheckResult int

const (
	CheckValid SessionCheckResult = iota
	CheckTimedOut
)

func (r SessionCheckResult) String() string {
	if r == CheckTimedOut {
		return "timed_out"
	}
	return "valid"
}
