package zipnova

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/invoicebridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipment func(ctx context.Context, req *carrier.ShipmentRequest) (*ShipmentResponse, error)

	mu       sync.Mutex
	requests []carrier.ShipmentRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment creates a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*ShipmentResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 500, Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	return &ShipmentResponse{
		StatusCode: 201,
		Body: map[string]any{
			"id":          "zn-" + uuid.New().String()[:8],
			"external_id": req.ExternalID,
			"tracking":    fmt.Sprintf("ZN%010d", time.Now().UnixNano()%10000000000),
			"status":      "new",
		},
	}, nil
}

// Requests returns the shipment requests received so far.
func (m *MockAPIClient) Requests() []carrier.ShipmentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]carrier.ShipmentRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ APIClient = (*MockAPIClient)(nil)
