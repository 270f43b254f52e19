package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers translate these into
// user-facing messages; anything not listed here is treated as internal.
var (
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("access denied")
	ErrUnauthorized   = errors.New("not authorized")

	// Authentication.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrPasswordExpired    = errors.New("password has expired")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")

	// Users.
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already in use")
	ErrUsernameExists = errors.New("username already in use")

	// Sessions.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Borrowing workflow. Each failure reason is distinct so the caller can
	// render a specific message rather than a generic error.
	ErrBorrowingNotFound     = errors.New("borrowing not found")
	ErrBorrowingNotPending   = errors.New("only pending borrowings can be approved or rejected")
	ErrBookUnavailable       = errors.New("book is currently borrowed by another member")
	ErrDuplicateBorrowing    = errors.New("an active borrowing already exists for this book")
	ErrPickupCodeNotFound    = errors.New("unknown pickup code")
	ErrPickupCodeExpired     = errors.New("pickup code has expired")
	ErrBorrowingNotActive    = errors.New("borrowing is not an active loan")
	ErrAlreadyExtended       = errors.New("loan has already been extended")
	ErrExtensionNotEligible  = errors.New("membership tier does not allow extensions")
	ErrDuplicateExtension    = errors.New("an extension request already exists for this loan")
	ErrExtensionNotPending   = errors.New("only pending extension requests can be decided")
	ErrExtensionNotFound     = errors.New("extension request not found")

	// Catalogue.
	ErrBookNotFound       = errors.New("book not found")
	ErrMembershipNotFound = errors.New("membership type not found")

	// Reservations.
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrReservationNotPending = errors.New("only pending reservations can be decided")
	ErrReservationNotLive    = errors.New("only confirmed reservations can be expired")
	ErrDuplicateReservation  = errors.New("a reservation already exists for this book")

	// Fines.
	ErrFineNotFound    = errors.New("fine not found")
	ErrFineAlreadyPaid = errors.New("fine has already been paid")
	ErrNegativeAmount  = errors.New("amount must not be negative")
)

// AppError carries a user-facing message, HTTP status and machine code
// alongside the wrapped cause.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrBorrowingNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrFineNotFound) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrMembershipNotFound) ||
		errors.Is(err, ErrExtensionNotFound) ||
		errors.Is(err, ErrPickupCodeNotFound)
}

// IsConflict reports whether err is a business-rule conflict: the request is
// well formed but collides with existing state. No partial change occurred.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBorrowingNotPending) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrDuplicateBorrowing) ||
		errors.Is(err, ErrAlreadyExtended) ||
		errors.Is(err, ErrDuplicateExtension) ||
		errors.Is(err, ErrExtensionNotPending) ||
		errors.Is(err, ErrReservationNotPending) ||
		errors.Is(err, ErrReservationNotLive) ||
		errors.Is(err, ErrDuplicateReservation) ||
		errors.Is(err, ErrFineAlreadyPaid) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrUsernameExists)
}

// IsExpiry reports whether err is a lazily detected expiry. These surface as
// "expired" rather than "not found".
func IsExpiry(err error) bool {
	return errors.Is(err, ErrPickupCodeExpired) ||
		errors.Is(err, ErrSessionExpired)
}

// IsUnauthorized reports whether err should surface as a 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrSessionExpired)
}
