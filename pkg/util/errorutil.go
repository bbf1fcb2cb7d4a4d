package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports a malformed field or an illegal state
// transition. Detected before any store mutation.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewForbidden reports a capability the actor lacks. No mutation is
// attempted once this is raised.
func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewStoreError wraps a commit failure. The attempted transaction has
// been rolled back by the time this surfaces.
func NewStoreError(err error) error {
	return &DomainError{
		Code:       "STORE_ERROR",
		Message:    "storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewTaskFailed records a background job failure. Never surfaced
// synchronously to the original caller; it lives on the task record.
func NewTaskFailed(kind string, err error) error {
	return &DomainError{
		Code:       "TASK_FAILED",
		Message:    fmt.Sprintf("task %s failed", kind),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
