package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrCompanyNotFound        = errors.New("company_not_found")
	ErrDuplicateName          = errors.New("duplicate_name")
	ErrAccountNotFound        = errors.New("account_not_found")
	ErrAccountFrozen          = errors.New("account_frozen")
	ErrInsufficientFunds      = errors.New("insufficient_funds")
	ErrInsufficientInventory  = errors.New("insufficient_inventory")
	ErrInsufficientPosition   = errors.New("insufficient_position")
	ErrPersistenceUnavailable = errors.New("persistence_unavailable")
	ErrCorruptState           = errors.New("corrupt_state")
	ErrSchedulerRunning       = errors.New("scheduler_running")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CorruptStatef builds an error wrapping ErrCorruptState.
func CorruptStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptState, fmt.Sprintf(format, args...))
}

// IsBusinessRule reports whether err is an expected trade outcome rather
// than a fault.
func IsBusinessRule(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity,
		ErrAccountFrozen,
		ErrInsufficientFunds,
		ErrInsufficientInventory,
		ErrInsufficientPosition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
