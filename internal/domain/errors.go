package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrActionInFlight is returned when the same action on the same resource is already pending
	ErrActionInFlight = errors.New("action already in flight")

	// ErrActionNotPermitted is returned when the current status does not allow an action
	ErrActionNotPermitted = errors.New("action not permitted")

	// ErrInvalidInput is the parent of all field validation failures
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError is a validation failure bound to a single form field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// NotPermittedError names the action and why the status forbids it
type NotPermittedError struct {
	Action Action
	Reason string
}

func (e *NotPermittedError) Error() string {
	return fmt.Sprintf("%s not permitted: %s", e.Action, e.Reason)
}

func (e *NotPermittedError) Unwrap() error {
	return ErrActionNotPermitted
}

// NotPermitted builds a NotPermittedError
func NotPermitted(action Action, format string, args ...interface{}) error {
	return &NotPermittedError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// ErrUpstream is the parent of every non-2xx answer from the WMS API
var ErrUpstream = errors.New("upstream error")

// UpstreamError is a non-2xx response from the WMS API
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("wms api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("wms api returned %d: %s", e.StatusCode, e.Detail)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// IsClientError reports a 4xx rejection
func (e *UpstreamError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
