package carrier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/invoicebridge/pkg/carrier"
)

func TestError_Error(t *testing.T) {
	err := carrier.NewError("zipnova", carrier.CodeRejected, "HTTP 422")
	assert.Equal(t, "zipnova error (REJECTED): HTTP 422", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := carrier.NewError("zipnova", carrier.CodeRejected, "request failed").WithCause(cause)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := carrier.NewError("zipnova", carrier.CodeRejected, "request failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := carrier.NewError("zipnova", carrier.CodeRejected, "HTTP 401")
	assert.True(t, errors.Is(err, carrier.ErrRejected))
	assert.False(t, errors.Is(err, carrier.ErrInvalidResponse))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating shipment: %w",
		carrier.NewError("zipnova", carrier.CodeInvalidResponse, "missing id"))
	assert.True(t, errors.Is(err, carrier.ErrInvalidResponse))
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", carrier.NewError("zipnova", carrier.CodeRejected, "Unauthorized").WithStatusCode(401))
	assert.Equal(t, 401, carrier.StatusCode(err))
	assert.Equal(t, 0, carrier.StatusCode(errors.New("plain")))
}
