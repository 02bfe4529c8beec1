package carrier

import (
	"errors"
	"fmt"
)

// Error codes reported by carrier gateways.
const (
	CodeRejected        = "REJECTED"
	CodeInvalidResponse = "INVALID_RESPONSE"
)

// Error represents an error from a shipping carrier.
type Error struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any carrier error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new carrier error.
func NewError(carrier, code, message string) *Error {
	return &Error{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

var (
	// ErrRejected indicates the carrier refused the request: a non-2xx
	// response (authentication failures included), a transport failure or
	// a timeout.
	ErrRejected = NewError("", CodeRejected, "shipment rejected")

	// ErrInvalidResponse indicates the carrier answered with success but no
	// usable shipment identifier could be extracted.
	ErrInvalidResponse = NewError("", CodeInvalidResponse, "invalid shipment response")
)

// StatusCode returns the HTTP status attached to a carrier error, or 0.
func StatusCode(err error) int {
	var carrierErr *Error
	if errors.As(err, &carrierErr) {
		return carrierErr.StatusCode
	}
	return 0
}
