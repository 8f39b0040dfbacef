package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gaborage/go-arcstack/schema"
)

// HTTPError is an error that maps onto a client-visible response
// {"error": Payload(), "status": HTTPStatus()}.
type HTTPError interface {
	error
	HTTPStatus() int
	Payload() any
}

// Error is a domain error raised by handlers. The default status is 400.
type Error struct {
	message string
	status  int
	cause   error
}

var _ HTTPError = (*Error)(nil)

// NewError creates a 400 error with the given message.
func NewError(message string) *Error {
	return &Error{message: message, status: http.StatusBadRequest}
}

// Errorf creates a 400 error with a formatted message.
func Errorf(format string, args ...any) *Error {
	return NewError(fmt.Sprintf(format, args...))
}

// WithStatus returns a copy of e with another status code.
func (e *Error) WithStatus(status int) *Error {
	clone := *e
	clone.status = status
	return &clone
}

// WithCause returns a copy of e wrapping cause. The cause is not sent to
// clients.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func (e *Error) Error() string { return e.message }

// Message returns the client-visible message.
func (e *Error) Message() string { return e.message }

// HTTPStatus returns the response status.
func (e *Error) HTTPStatus() int { return e.status }

// Payload returns the message.
func (e *Error) Payload() any { return e.message }

func (e *Error) Unwrap() error { return e.cause }

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource string) *Error {
	return Errorf("%s not found", resource).WithStatus(http.StatusNotFound)
}

// NewConflictError reports a state conflict.
func NewConflictError(message string) *Error {
	return NewError(message).WithStatus(http.StatusConflict)
}

// NewForbiddenError reports a caller without permission.
func NewForbiddenError(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return NewError(message).WithStatus(http.StatusForbidden)
}

// NewTooManyRequestsError reports an exhausted rate limit.
func NewTooManyRequestsError() *Error {
	return NewError("Too many requests").WithStatus(http.StatusTooManyRequests)
}

// NewServiceUnavailableError reports a dependency that cannot serve.
func NewServiceUnavailableError(service string) *Error {
	return Errorf("%s is unavailable", service).WithStatus(http.StatusServiceUnavailable)
}

// ValidationError carries every field failure found while binding one
// request.
type ValidationError struct {
	Errors []schema.FieldError
}

var _ HTTPError = (*ValidationError)(nil)

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + e.Errors[0].Message
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.Errors))
	}
}

// HTTPStatus returns 400.
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Payload returns the field errors.
func (e *ValidationError) Payload() any { return e.Errors }

// ReturnValidationError means a handler returned a value that does not match
// its declared response schema. It is a server-side defect, never a client
// error.
type ReturnValidationError struct {
	Endpoint string
	Verb     Verb
	Schema   string
	Errors   []schema.FieldError
}

func (e *ReturnValidationError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		messages = append(messages, fe.Message)
	}
	return fmt.Sprintf("%s.%s returned a value not matching %s: %s",
		e.Endpoint, e.Verb, e.Schema, strings.Join(messages, "; "))
}

// ErrInvalidResult is wrapped by errors about handler results that cannot be
// serialized at all.
var ErrInvalidResult = errors.New("invalid handler result")

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// SignatureError reports an invalid handler declaration.
type SignatureError struct {
	Type   string
	Verb   Verb
	Param  string
	Reason string
}

func (e *SignatureError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type)
	if e.Verb != "" {
		b.WriteString(".")
		b.WriteString(string(e.Verb))
	}
	if e.Param != "" {
		fmt.Fprintf(&b, " parameter %q", e.Param)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// ConfigError reports an endpoint option that cannot be applied.
//
//nolint:revive // ConfigError mirrors config.ConfigError
type ConfigError struct {
	Endpoint string
	Key      string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: option %q %s", e.Endpoint, e.Key, e.Reason)
}
