package zipnova

import (
	"context"
	"errors"
	"fmt"

	"github.com/tournevent/invoicebridge/pkg/carrier"
)

// APIClient defines the interface for Zipnova API operations.
// Production uses HTTPAPIClient; tests and local runs use MockAPIClient.
type APIClient interface {
	// CreateShipment posts a shipment to POST /shipments.
	CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*ShipmentResponse, error)
}

// ShipmentResponse is the decoded body of a successful POST /shipments.
// Zipnova's response schema is only partially documented, so the body is
// kept as a generic JSON object and identifiers are extracted by the Client.
type ShipmentResponse struct {
	StatusCode int
	Body       map[string]any
}

// ErrMalformedResponse is returned when a 2xx response body is not a JSON object.
var ErrMalformedResponse = errors.New("malformed response body")

// ErrEncodeRequest is returned when a request cannot be encoded. Nothing is
// sent to Zipnova in that case.
var ErrEncodeRequest = errors.New("request not encodable")

// APIError represents a non-2xx answer from the Zipnova API.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"` // Field-level errors
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP_%d: %s", e.StatusCode, e.Message)
	}
	return e.Code + ": " + e.Message
}
