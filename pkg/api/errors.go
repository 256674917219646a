package api

import (
	"fmt"
	"net/http"
)

// Client-facing messages. The wording is part of the public API.
const (
	MessageAccessDenied        = "Access Denied"
	MessageInternalServerError = "Internal Server Error"
	MessageRouteNotFound       = "Route Not Found"
	MessageTooManyRequests     = "Too Many Requests"
)

// APIError is a client error carrying an HTTP status and a single message.
// It is written as {"message": "..."}.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// MessageResponse is the wire shape for single-message responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorsResponse is the wire shape for validation failures.
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

// NewUnauthorizedError returns the uniform authentication failure. Every
// rejection reason maps to this same value so callers cannot tell which
// stage failed.
func NewUnauthorizedError() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: MessageAccessDenied}
}

// NewNotFoundError creates a 404 for the named resource, e.g. "Course not found".
func NewNotFoundError(resource string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: capitalize(resource) + " not found"}
}

// NewForbiddenError creates a 403 for a resource owned by someone else.
func NewForbiddenError(resource string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: "Forbidden: You do not own this " + resource}
}

// NewRouteNotFoundError is returned when no route matches.
func NewRouteNotFoundError() *APIError {
	return &APIError{Status: http.StatusNotFound, Message: MessageRouteNotFound}
}

// NewTooManyRequestsError is returned by the rate limiter.
func NewTooManyRequestsError() *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Message: MessageTooManyRequests}
}

// NewRequestError creates a transport-level client error (unsupported media
// type, body too large).
func NewRequestError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// ViolationKind distinguishes field constraint failures from uniqueness
// failures. Both are reported identically to clients.
type ViolationKind string

const (
	FieldConstraint  ViolationKind = "field_constraint"
	UniqueConstraint ViolationKind = "unique_constraint"
)

// ValidationError is the complete set of constraint violations from one
// rejected write, in field declaration order.
type ValidationError struct {
	Kind     ViolationKind
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %v", e.Kind, e.Messages)
}

// NewFieldViolation creates a field constraint ValidationError.
func NewFieldViolation(messages ...string) *ValidationError {
	return &ValidationError{Kind: FieldConstraint, Messages: messages}
}

// NewUniqueViolation creates a uniqueness ValidationError.
func NewUniqueViolation(messages ...string) *ValidationError {
	return &ValidationError{Kind: UniqueConstraint, Messages: messages}
}

// ServerFault wraps any failure that must not be described to the client.
type ServerFault struct {
	Cause error
}

// Error implements the error interface.
func (e *ServerFault) Error() string {
	if e.Cause == nil {
		return "server fault"
	}
	return "server fault: " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *ServerFault) Unwrap() error {
	return e.Cause
}

// NewServerFault wraps err as a ServerFault.
func NewServerFault(err error) *ServerFault {
	return &ServerFault{Cause: err}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
