package models

import (
	"time"

	"github.com/google/uuid"
)

// Role defines the access level of a library account.
type Role string

const (
	RoleMember    Role = "member"
	RoleLibrarian Role = "librarian"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// Elevated reports whether the role is subject to the password rotation policy.
func (r Role) Elevated() bool {
	return r == RoleManager || r == RoleAdmin
}

// User represents a library account, aligned with the users table.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Role         Role      `json:"role" db:"role"`
	MembershipID *int64    `json:"membership_id,omitempty" db:"membership_id"`

	// Account lock state, maintained by the lockout engine.
	FailedLoginAttempts int        `json:"failed_login_attempts" db:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"account_locked_until,omitempty" db:"account_locked_until"`
	LastFailedAttempt   *time.Time `json:"last_failed_attempt,omitempty" db:"last_failed_attempt"`

	// Password rotation state for elevated roles.
	LastPasswordChange     *time.Time `json:"last_password_change,omitempty" db:"last_password_change"`
	PasswordChangeRequired bool       `json:"password_change_required" db:"password_change_required"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Membership *MembershipType `json:"membership,omitempty" db:"-"` // Loaded separately
}

// UserResponse structures the account data returned by API endpoints.
type UserResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Role                Role       `json:"role"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"account_locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	Membership          string     `json:"membership,omitempty"`
}

// ToResponse converts a User model to an API UserResponse.
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Role:                u.Role,
		FailedLoginAttempts: u.FailedLoginAttempts,
		AccountLockedUntil:  u.AccountLockedUntil,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
	}
	if u.Membership != nil {
		resp.Membership = u.Membership.Name
	}
	return resp
}
