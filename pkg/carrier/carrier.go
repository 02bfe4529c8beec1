// Package carrier provides the abstraction the sync pipeline uses to create
// shipments with a shipping provider.
package carrier

import (
	"context"
)

// Gateway defines what the sync pipeline needs from a shipping carrier.
type Gateway interface {
	// Name returns the carrier identifier (e.g., "zipnova").
	Name() string

	// CreateShipment submits a shipment-creation request and returns the
	// identifiers of the created shipment. A successful response that does
	// not carry a shipment identifier is reported as ErrInvalidResponse.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)
}

// RunScoped is implemented by gateways holding per-run state, such as a
// circuit breaker. BeginRun is called once at the start of every sync run,
// before any shipment is created, and discards the previous run's state.
type RunScoped interface {
	BeginRun()
}
