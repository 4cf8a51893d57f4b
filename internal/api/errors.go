package api

import (
	"errors"
	"fmt"
)

// Common errors returned by the tracker client.
var (
	// ErrUnauthorized is returned when the session is missing or expired.
	ErrUnauthorized = errors.New("unauthorized: session missing or expired")

	// ErrServerUnavailable is returned when the tracker cannot be reached.
	ErrServerUnavailable = errors.New("tracker unavailable")

	// ErrInvalidRequest is returned for rejected parameters (bad week, bad export type).
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnexpectedResponse is returned when a body does not have the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// APIError wraps a failed call with the operation and HTTP status.
type APIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("tracker: %s failed (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tracker: %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError.
func NewAPIError(operation string, statusCode int, err error) *APIError {
	return &APIError{Operation: operation, StatusCode: statusCode, Err: err}
}

// IsUnauthorized returns true if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsServerUnavailable returns true if the tracker could not be reached.
func IsServerUnavailable(err error) bool {
	return errors.Is(err, ErrServerUnavailable)
}
