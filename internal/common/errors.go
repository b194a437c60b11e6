// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Ledger errors.
	ErrInvalidOperation = errors.New("invalid operation")

	// Budget errors.
	ErrDuplicateBudget = errors.New("duplicate budget")

	// Category errors.
	ErrCircularReference = errors.New("circular category reference")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError carries an opaque message key; translating the key to display
// text is the caller's job.
type ValidationError struct {
	Key string
}

func (e *ValidationError) Error() string {
	return e.Key
}

// NewValidationError creates a validation error from a message key.
func NewValidationError(key string) error {
	return &ValidationError{Key: key}
}

// HasDependentsError is returned when a delete is blocked by rows that still
// reference the target.
type HasDependentsError struct {
	Entity     string
	Children   int
	Operations int
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("%s has dependents: %d children, %d operations",
		e.Entity, e.Children, e.Operations)
}
