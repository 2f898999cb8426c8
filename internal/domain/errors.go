package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports missing or malformed input. It is surfaced immediately, with no fallback.
type ValidationError struct {
	Message string
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// AuthError reports that the upstream rejected a store's credentials
type AuthError struct {
	StoreID string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed for store %s (status %d): %v", e.StoreID, e.Status, e.Err)
	}
	return fmt.Sprintf("authentication failed for store %s: %v", e.StoreID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ConnectivityError reports that the upstream could not be reached or is unavailable
// (timeout, connection refused, HTTP 503 or 404). It is recovered locally and never
// reaches consumers.
type ConnectivityError struct {
	Op     string
	Status int
	Err    error
}

func (e *ConnectivityError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream unavailable (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: upstream unreachable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// FetchError reports a non-recoverable failure reading an endpoint
type FetchError struct {
	Endpoint Endpoint
	StoreID  string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s for store %s failed with status %d: %v", e.Endpoint, e.StoreID, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s for store %s failed: %v", e.Endpoint, e.StoreID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the upstream refused the bearer token
func (e *FetchError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// PersistenceError reports a failed write of one record
type PersistenceError struct {
	Entity string
	Key    string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s %s: %v", e.Entity, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsUnauthorizedFetch reports whether err is a FetchError caused by a rejected token
func IsUnauthorizedFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Unauthorized()
}
