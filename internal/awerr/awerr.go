// Package awerr provides the category-classified error type returned by the
// storage layer. Callers branch on category: not_found is expected and
// recoverable, invalid_argument is a caller bug, storage is fatal to the
// current operation.
package awerr

import (
	"errors"
	"fmt"
)

// Category classifies a storage error for caller-side handling.
type Category string

const (
	// CategoryNotFound indicates a referenced bucket or event is absent.
	CategoryNotFound Category = "not_found"
	// CategoryInvalidArgument indicates a malformed call, e.g. an update
	// with zero fields.
	CategoryInvalidArgument Category = "invalid_argument"
	// CategoryStorage indicates a connection, transport, or constraint
	// error from the underlying engine, surfaced unchanged via Unwrap.
	CategoryStorage Category = "storage"
	// CategoryConfig indicates missing or invalid startup configuration.
	CategoryConfig Category = "config"
)

// StoreError is a structured error with a category and an optional cause.
type StoreError struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NotFound creates a not_found error.
func NotFound(message string) *StoreError {
	return &StoreError{Category: CategoryNotFound, Message: message}
}

// NotFoundf creates a not_found error with a formatted message.
func NotFoundf(format string, args ...any) *StoreError {
	return NotFound(fmt.Sprintf(format, args...))
}

// InvalidArgument creates an invalid_argument error.
func InvalidArgument(message string) *StoreError {
	return &StoreError{Category: CategoryInvalidArgument, Message: message}
}

// Storage wraps an engine error. The cause stays reachable through Unwrap
// so callers can still inspect driver-specific error types.
func Storage(err error, message string) *StoreError {
	return &StoreError{Category: CategoryStorage, Message: message, Cause: err}
}

// Config creates a config error.
func Config(message string) *StoreError {
	return &StoreError{Category: CategoryConfig, Message: message}
}

// IsCategory checks whether err (or any error it wraps) carries the category.
func IsCategory(err error, category Category) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Category == category
	}
	return false
}

// IsNotFound reports whether err is a not_found error.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsInvalidArgument reports whether err is an invalid_argument error.
func IsInvalidArgument(err error) bool {
	return IsCategory(err, CategoryInvalidArgument)
}

// GetCategory extracts the category from an error, defaulting to storage
// for plain engine errors.
func GetCategory(err error) Category {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryStorage
}
