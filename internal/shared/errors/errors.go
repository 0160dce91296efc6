// Package errors provides application-level error types. Callers branch on
// the error kind instead of matching message strings.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the kind of error.
type ErrorType string

const (
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInvalidArgument  ErrorType = "invalid_argument"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	ErrorTypeCacheUnavailable ErrorType = "cache_unavailable"
	ErrorTypeChargeFailed     ErrorType = "charge_failed"
	ErrorTypeInternal         ErrorType = "internal_error"
)

// AppError represents an application error with a kind and optional cause.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a not_found error.
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewInvalidArgumentError creates an invalid_argument error.
func NewInvalidArgumentError(message string) *AppError {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewStoreUnavailableError wraps a persistent store I/O failure. The caller
// should retry with backoff; no partial effect was applied.
func NewStoreUnavailableError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeStoreUnavailable, Message: message, Cause: cause}
}

// NewCacheUnavailableError wraps a cache round-trip failure. Non-fatal; the
// cache layer absorbs it into a miss.
func NewCacheUnavailableError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeCacheUnavailable, Message: message, Cause: cause}
}

// NewChargeFailedError creates a charge_failed error for a declined billing
// charge. Aborts the manual reset path only.
func NewChargeFailedError(message string) *AppError {
	return &AppError{Type: ErrorTypeChargeFailed, Message: message}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Cause: cause}
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFoundError reports whether err is a not_found error.
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsInvalidArgumentError reports whether err is an invalid_argument error.
func IsInvalidArgumentError(err error) bool { return isType(err, ErrorTypeInvalidArgument) }

// IsConflictError reports whether err is a conflict error.
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsStoreUnavailableError reports whether err is a store_unavailable error.
func IsStoreUnavailableError(err error) bool { return isType(err, ErrorTypeStoreUnavailable) }

// IsCacheUnavailableError reports whether err is a cache_unavailable error.
func IsCacheUnavailableError(err error) bool { return isType(err, ErrorTypeCacheUnavailable) }

// IsChargeFailedError reports whether err is a charge_failed error.
func IsChargeFailedError(err error) bool { return isType(err, ErrorTypeChargeFailed) }
