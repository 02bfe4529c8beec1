package orders

import (
	"fmt"
)

// Error codes reported by orders gateways.
const (
	CodeAuthentication = "AUTHENTICATION"
	CodeListing        = "LISTING"
	CodeFetchDetail    = "FETCH_DETAIL"
	CodeWriteBack      = "WRITE_BACK"
)

// Error represents a failed call to the orders system.
type Error struct {
	System     string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.System, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.System, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any orders error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new orders error.
func NewError(system, code, message string) *Error {
	return &Error{
		System:  system,
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

// Sentinel errors, matched by code with errors.Is.
var (
	// ErrAuthentication indicates the session could not be established.
	ErrAuthentication = NewError("", CodeAuthentication, "authentication failed")

	// ErrListing indicates candidates could not be enumerated.
	ErrListing = NewError("", CodeListing, "listing failed")

	// ErrFetchDetail indicates an invoice detail could not be retrieved.
	ErrFetchDetail = NewError("", CodeFetchDetail, "fetch detail failed")

	// ErrWriteBack indicates the shipment linkage was not persisted.
	ErrWriteBack = NewError("", CodeWriteBack, "write-back failed")
)
