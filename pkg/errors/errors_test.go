package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMissingOptionsError(t *testing.T) {
	assert.Equal(t, `bad configuration: the required option "scrapers" is missing`,
		NewMissingOptionsError("scrapers").Error())
	assert.Equal(t, `bad configuration: the required options "method", "repository" are missing`,
		NewMissingOptionsError("repository", "method").Error())
}

func TestHitErrorMessage(t *testing.T) {
	err := &HitError{Fingerprint: "abc", ExpiresAt: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Expires on Wed, 01 May 2024 13:00:00 +0000", err.Error())
}

func TestTypeOfAndHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		typ    ErrorType
		status int
	}{
		{name: "nil", err: nil, typ: "", status: http.StatusOK},
		{name: "hit", err: fmt.Errorf("gate: %w", &HitError{}), typ: ErrorTypeHit, status: http.StatusTooManyRequests},
		{name: "missing options", err: NewMissingOptionsError("tag"), typ: ErrorTypeConfiguration, status: http.StatusBadRequest},
		{name: "not found", err: NewNotFoundError("gone", 404), typ: ErrorTypeNotFound, status: http.StatusNotFound},
		{name: "rate limit", err: NewRateLimitError("slow down", 429), typ: ErrorTypeRateLimit, status: http.StatusTooManyRequests},
		{name: "plain", err: errors.New("boom"), typ: ErrorTypeUnknown, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, TypeOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}

	assert.True(t, IsHit(&HitError{}))
	assert.False(t, IsHit(NewAPIError("x", 400)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network error (code 0)")
	assert.True(t, IsRetryable(err.Type))
	assert.False(t, IsRetryable(ErrorTypeRateLimit))
}
