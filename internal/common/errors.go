package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so the HTTP layer can map them
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindRateLimited  ErrorKind = "RATE_LIMITED"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

// AppError is the typed error returned by services
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Kind != KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response code
func (e *AppError) HTTPStatus() int {
	return StatusForKind(e.Kind)
}

// StatusForKind maps an ErrorKind to an HTTP status code
func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports a single invalid field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "Validation failed",
		Details: map[string]string{field: message},
	}
}

// NewValidationErrors reports several invalid fields at once
func NewValidationErrors(details map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation failed", Details: details}
}

// NewNotFoundError reports a missing or soft-deleted resource
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewConflictError reports a violated state precondition or duplicate key
func NewConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewForbiddenError reports a failed role or ownership check
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedError reports missing or invalid credentials
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: message}
}

// NewInternalError wraps an unexpected failure without leaking its cause
func NewInternalError(operation string, err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: fmt.Sprintf("failed to %s: operation could not be completed", operation),
		Err:     err,
	}
}

// KindOf returns the kind of err, KindInternal for untyped errors
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return err != nil && KindOf(err) == KindConflict }
func IsForbidden(err error) bool  { return err != nil && KindOf(err) == KindForbidden }
func IsUnauthorized(err error) bool {
	return err != nil && KindOf(err) == KindUnauthorized
}

// SecureErrorMessage keeps typed errors and hides everything else behind an internal error
func SecureErrorMessage(operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(operation, err)
}
