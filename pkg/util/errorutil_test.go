package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError_PassThrough(t *testing.T) {
	original := NewConflict("already there", nil)

	converted := ToDomainError(original)
	assert.Equal(t, "CONFLICT", converted.Code)
	assert.Equal(t, http.StatusConflict, converted.HTTPStatus)
}

func TestToDomainError_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewForbidden("nope"))

	converted := ToDomainError(wrapped)
	assert.Equal(t, "FORBIDDEN", converted.Code)
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	converted := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", converted.Code)
	assert.Equal(t, http.StatusNotFound, converted.HTTPStatus)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	converted := ToDomainError(errors.New("mystery"))
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	assert.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewValidationError("bad", nil), "VALIDATION_FAILED"))
	assert.False(t, IsCode(NewValidationError("bad", nil), "CONFLICT"))
	assert.False(t, IsCode(errors.New("plain"), "VALIDATION_FAILED"))
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, "STORE_ERROR"))
}
