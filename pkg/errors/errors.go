package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeHit           ErrorType = "hit"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeAPI           ErrorType = "api"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates an error for a missing endpoint or resource
func NewNotFoundError(message string, code int) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message, Code: code}
}

// NewRateLimitError creates an error for a throttled request
func NewRateLimitError(message string, code int) *Error {
	return &Error{Type: ErrorTypeRateLimit, Message: message, Code: code}
}

// NewAuthError creates an error for rejected credentials
func NewAuthError(message string, code int) *Error {
	return &Error{Type: ErrorTypeAuth, Message: message, Code: code}
}

// NewAPIError creates a catch-all API error
func NewAPIError(message string, code int) *Error {
	return &Error{Type: ErrorTypeAPI, Message: message, Code: code}
}

// NewNetworkError wraps a transport failure
func NewNetworkError(err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
}

// NewParsingError wraps a payload decoding failure
func NewParsingError(err error, code int) *Error {
	return &Error{Type: ErrorTypeParsing, Message: fmt.Sprintf("failed to parse response: %v", err), Code: code, Err: err}
}

// MissingOptionsError reports required options that were not provided.
type MissingOptionsError struct {
	Keys []string
}

// NewMissingOptionsError sorts the keys so the message is stable.
func NewMissingOptionsError(keys ...string) *MissingOptionsError {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return &MissingOptionsError{Keys: sorted}
}

func (e *MissingOptionsError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	if len(quoted) == 1 {
		return fmt.Sprintf("bad configuration: the required option %s is missing", quoted[0])
	}
	return fmt.Sprintf("bad configuration: the required options %s are missing", strings.Join(quoted, ", "))
}

// HitError signals that a recent scrape with the same fingerprint exists.
// It is informational: no API call was made and nothing failed.
type HitError struct {
	Fingerprint string
	ExpiresAt   time.Time
}

func (e *HitError) Error() string {
	return fmt.Sprintf("Expires on %s", e.ExpiresAt.Format(time.RFC1123Z))
}

// TypeOf classifies any error in the chain
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}

	var hit *HitError
	if errors.As(err, &hit) {
		return ErrorTypeHit
	}

	var missing *MissingOptionsError
	if errors.As(err, &missing) {
		return ErrorTypeConfiguration
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}

	return ErrorTypeUnknown
}

// IsHit reports whether err is a freshness hit
func IsHit(err error) bool {
	return TypeOf(err) == ErrorTypeHit
}

// HTTPStatus maps an error to the status code reported by import endpoints
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch TypeOf(err) {
	case ErrorTypeConfiguration:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeHit, ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable checks if an error type should be retried.
// Rate limits are left to the caller's scheduler.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
