/*
errors.go - Error types for the leave engine

PURPOSE:
  Every business-rule failure is an error value, never a panic. Callers
  branch with errors.Is on the sentinels, or errors.As on the structured
  types when they need the numbers for a message.

ERROR CATEGORIES:
  1. Validation - InsufficientBalance, OverlappingRequest, InvalidRequest
  2. Lookup     - RequestNotFound, UserNotFound, TaskNotFound
  3. Access     - NoActiveUser, Forbidden, InvalidCredentials

SEE ALSO:
  - messages.go: Localized text for each error
  - api/handlers.go: HTTP status mapping
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when the requested working days exceed
	// the available (reserved-basis) vacation days.
	ErrInsufficientBalance = errors.New("insufficient vacation balance")

	// ErrOverlappingRequest is returned when the range intersects an existing
	// non-rejected request of the same type for the same user.
	ErrOverlappingRequest = errors.New("overlapping leave request")

	ErrRequestNotFound = errors.New("leave request not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrTaskNotFound    = errors.New("task not found")

	// ErrNoActiveUser is returned when an operation needs an acting user and none is set.
	ErrNoActiveUser = errors.New("no active user")

	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTooManyAttempts is returned while a user is locked out after
	// repeated wrong PINs.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	UserID    string
	Requested int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient vacation balance: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// OverlapError identifies the request that blocks a new range. Type and
// SingleDay pick the message variant only.
type OverlapError struct {
	Type       LeaveType
	SingleDay  bool
	ExistingID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s request overlaps existing request %s", e.Type, e.ExistingID)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlappingRequest
}

// invalid wraps ErrInvalidRequest with a reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Kind names the discriminated failure kind exposed to clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrOverlappingRequest):
		return "overlap"
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTaskNotFound):
		return "not_found"
	case errors.Is(err, ErrNoActiveUser):
		return "no_active_user"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_input"
	default:
		return "internal"
	}
}

// IsClientError returns true if the error is due to a rule violation or bad input.
func IsClientError(err error) bool {
	return Kind(err) != "internal" && err != nil
}
