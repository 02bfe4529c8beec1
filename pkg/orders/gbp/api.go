package gbp

import (
	"context"
	"fmt"

	"github.com/tournevent/invoicebridge/pkg/orders"
)

// APIClient defines the interface for GBP web service operations.
// Production uses SOAPAPIClient; tests and local runs use MockAPIClient.
type APIClient interface {
	// Login opens a session and returns its token.
	Login(ctx context.Context) (string, error)

	// ListInvoices returns the listing rows of invoices tagged with the
	// given logistics value that have no shipment yet.
	ListInvoices(ctx context.Context, token, logistics string) ([]map[string]any, error)

	// GetInvoice returns the full invoice record.
	GetInvoice(ctx context.Context, token, invoiceID string) (map[string]any, error)

	// UpdateInvoice stores the shipment linkage on the invoice.
	UpdateInvoice(ctx context.Context, token string, update *InvoiceUpdate) error

	// Probe performs a raw GET against the WSDL URL.
	Probe(ctx context.Context) orders.Diagnostics
}

// InvoiceUpdate is the shipment linkage written back to an invoice.
type InvoiceUpdate struct {
	InvoiceID    string
	ShipmentID   string
	TrackingCode string
}

// Operations names the SOAP operations of the GBP service.
type Operations struct {
	Login  string
	List   string
	Detail string
	Update string
}

// DefaultOperations returns the operation names used when none are configured.
func DefaultOperations() Operations {
	return Operations{
		Login:  "Login",
		List:   "ListInvoices",
		Detail: "GetInvoice",
		Update: "UpdateInvoice",
	}
}

// APIError represents an error from the GBP web service.
type APIError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}

func httpError(status int, body string) *APIError {
	return &APIError{
		Code:        fmt.Sprintf("HTTP_%d", status),
		Description: body,
		StatusCode:  status,
	}
}
