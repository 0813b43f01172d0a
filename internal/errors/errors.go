// Package errors provides the structured error taxonomy for the briefly client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes surfaced to callers. None of them
// are retried automatically; retry is a user-initiated repetition of the call.
var (
	ErrValidation   = errors.New("invalid input")
	ErrState        = errors.New("operation invalid in current state")
	ErrAuth         = errors.New("authentication failed")
	ErrTransmission = errors.New("transmission failed")
	ErrPersistence  = errors.New("remote store rejected write")
	ErrNotFound     = errors.New("resource not found")
	ErrConcurrency  = errors.New("conflicting operation in flight")
)

// APIError represents a rejected call to a remote BrieflyAI endpoint.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// FromStatus classifies a non-2xx response into the taxonomy. Write indicates
// whether the request was a mutation; failed mutations map to ErrPersistence
// while failed reads map to ErrTransmission.
func FromStatus(service string, status int, body string, write bool) *APIError {
	var class error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		class = ErrAuth
	case status == http.StatusNotFound:
		class = ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		class = ErrValidation
	case write:
		class = ErrPersistence
	default:
		class = ErrTransmission
	}
	return &APIError{Service: service, StatusCode: status, Body: body, Err: class}
}

// Transport wraps a network-level failure (dial, timeout, broken body) as a
// transmission error for the given service.
func Transport(service string, err error) error {
	return fmt.Errorf("%s: %w: %w", service, ErrTransmission, err)
}
