package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("not found")
	ErrRejected        = errors.New("request rejected")
	ErrUpstream        = errors.New("backend unavailable")
	ErrDuplicateItem   = errors.New("item already in cart")
	ErrInvalidInput    = errors.New("invalid input")
)

// ConnectivityMessage is the generic user-facing message shown when the
// backend cannot be reached or returns something other than valid JSON.
const ConnectivityMessage = "Could not reach the store backend. Check that it is running, reachable and returns valid JSON."

// APIError is a structured error carrying a stable code, a user-facing
// message, and the HTTP status it maps to at the gateway surface.
// Implements error and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewUnauthenticatedError creates the local "no credential" error.
// Raised before any network call is made; the message tells the user to log in.
func NewUnauthenticatedError(action string) *APIError {
	return &APIError{
		Code:       "UNAUTHENTICATED",
		Message:    fmt.Sprintf("Login to %s.", action),
		StatusCode: 401,
		Err:        ErrUnauthenticated,
	}
}

// NewUnauthorizedError creates a 401 error for a credential the backend refused.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthenticated,
	}
}

// NewNotFoundError creates a 404 error. The meaning depends on the endpoint:
// empty search match for product search, invalid product ID for cart updates.
func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", what),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewRejectedError creates a 400 error for a validation or business rule the
// backend enforced. The server-supplied message is shown verbatim.
func NewRejectedError(message string) *APIError {
	if message == "" {
		message = "invalid request"
	}
	return &APIError{
		Code:       "REJECTED",
		Message:    message,
		StatusCode: 400,
		Err:        ErrRejected,
	}
}

// NewUpstreamError creates a 502 error for network failures, 5xx responses,
// and non-JSON payloads. The user sees the generic connectivity message; the
// wrapped error keeps the real cause for logs.
func NewUpstreamError(err error) *APIError {
	return &APIError{
		Code:       "BACKEND_UNAVAILABLE",
		Message:    ConnectivityMessage,
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstream, err),
	}
}

// NewDuplicateItemError creates the local guard error raised when an "add new
// item" action targets a product already in the display cart. Never reaches
// the network.
func NewDuplicateItemError() *APIError {
	return &APIError{
		Code:       "DUPLICATE_ITEM",
		Message:    "Item already in cart. Use the cart sidebar to update quantity or remove item.",
		StatusCode: 409,
		Err:        ErrDuplicateItem,
	}
}

// NewValidationError creates a 400 error for input rejected locally,
// before any network call (e.g. auth form rules).
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("%s %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidInput,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
