package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "price must be >= 1"}
	if err.Error() != "price must be >= 1" {
		t.Errorf("Error() = %q, want %q", err.Error(), "price must be >= 1")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrInvalidQuantity,
		ErrCompanyNotFound,
		ErrDuplicateName,
		ErrAccountNotFound,
		ErrAccountFrozen,
		ErrInsufficientFunds,
		ErrInsufficientInventory,
		ErrInsufficientPosition,
		ErrPersistenceUnavailable,
		ErrCorruptState,
		ErrSchedulerRunning,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}

func TestCorruptStatef_WrapsSentinel(t *testing.T) {
	err := CorruptStatef("company %d", 7)
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	if err.Error() != "corrupt_state: company 7" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsBusinessRule(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"funds", ErrInsufficientFunds, true},
		{"wrapped inventory", fmt.Errorf("buy: %w", ErrInsufficientInventory), true},
		{"frozen", ErrAccountFrozen, true},
		{"not found", ErrCompanyNotFound, false},
		{"persistence", ErrPersistenceUnavailable, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusinessRule(tt.err); got != tt.want {
				t.Errorf("IsBusinessRule(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
