// Package orders defines the contract the sync pipeline needs from the
// order/invoice management system it reads invoices from and writes
// shipment linkage back to.
package orders

import (
	"context"
)

// SessionToken is the opaque token issued by Authenticate. It is only
// valid for the run that obtained it.
type SessionToken string

// RawInvoice is an invoice record as returned by the orders system.
// Field names are not fixed, so it is kept as a generic tree.
type RawInvoice map[string]any

// CandidateRef identifies an invoice returned by the coarse listing.
type CandidateRef struct {
	InvoiceID string
	Raw       RawInvoice // listing row, may be partial
}

// Gateway defines the operations the sync pipeline performs against the
// orders system.
type Gateway interface {
	// Authenticate establishes a session. Fails with ErrAuthentication.
	Authenticate(ctx context.Context) (SessionToken, error)

	// ListShippableCandidates returns invoices flagged for the carrier and
	// not yet shipped according to the orders system's own bookkeeping.
	// Fails with ErrListing.
	ListShippableCandidates(ctx context.Context, token SessionToken) ([]CandidateRef, error)

	// FetchDetail returns the full invoice record. Fails with ErrFetchDetail.
	FetchDetail(ctx context.Context, token SessionToken, ref CandidateRef) (RawInvoice, error)

	// RecordShipment writes the created shipment back against the invoice.
	// An empty trackingCode means no tracking code. Fails with ErrWriteBack.
	RecordShipment(ctx context.Context, token SessionToken, invoiceID, shipmentID, trackingCode string) error
}

// Prober is implemented by gateways that can report raw connectivity
// diagnostics for their endpoint.
type Prober interface {
	Probe(ctx context.Context) Diagnostics
}

// Diagnostics is the outcome of a raw connectivity probe.
type Diagnostics struct {
	URL         string            `json:"url"`
	Status      int               `json:"status,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Head        string            `json:"head,omitempty"`
	Error       string            `json:"error,omitempty"`
}
