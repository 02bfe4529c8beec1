package gbp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/invoicebridge/pkg/orders"
)

// MockAPIClient is an in-memory implementation of APIClient for testing
// and for running the service without a GBP endpoint.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnLogin         func(ctx context.Context) (string, error)
	OnListInvoices  func(ctx context.Context, token, logistics string) ([]map[string]any, error)
	OnGetInvoice    func(ctx context.Context, token, invoiceID string) (map[string]any, error)
	OnUpdateInvoice func(ctx context.Context, token string, update *InvoiceUpdate) error

	mu       sync.Mutex
	order    []string
	invoices map[string]map[string]any
	updates  []InvoiceUpdate
}

// NewMockAPIClient creates a mock API client with no invoices.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		invoices: make(map[string]map[string]any),
	}
}

// NewSeededMockAPIClient creates a mock API client holding a few sample
// invoices: one shippable, one without street number and one not invoiced.
func NewSeededMockAPIClient() *MockAPIClient {
	m := NewMockAPIClient()
	m.AddInvoice(map[string]any{
		"InvoiceId":    "F0001-00001234",
		"Status":       "FACTURADO",
		"Logistics":    "ZIPNOVA",
		"CustomerName": "Juana Pérez",
		"Delivery":     map[string]any{"Street": "Av. Corrientes", "Number": "1234", "Extra": "Piso 3"},
		"Totals":       map[string]any{"TotalWithoutTaxes": "12345.67"},
		"ItemsQty":     "2",
	})
	m.AddInvoice(map[string]any{
		"InvoiceId": "F0001-00001235",
		"Status":    "FACTURADO",
		"Logistics": "ZIPNOVA",
		"Delivery":  map[string]any{"Street": "San Martín"},
		"Totals":    map[string]any{"TotalWithoutTaxes": "800"},
	})
	m.AddInvoice(map[string]any{
		"InvoiceId": "F0001-00001236",
		"Status":    "PENDIENTE",
		"Logistics": "ZIPNOVA",
		"Delivery":  map[string]any{"Street": "Belgrano", "Number": "50"},
		"Totals":    map[string]any{"TotalWithoutTaxes": "150.5"},
	})
	return m
}

// AddInvoice stores an invoice record keyed by its InvoiceId field.
func (m *MockAPIClient) AddInvoice(raw map[string]any) {
	id := fmt.Sprint(raw["InvoiceId"])

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		m.order = append(m.order, id)
	}
	m.invoices[id] = raw
}

// Invoice returns a copy of a stored invoice.
func (m *MockAPIClient) Invoice(id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, false
	}
	return copyMap(inv), true
}

// Updates returns the write-backs received so far.
func (m *MockAPIClient) Updates() []InvoiceUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]InvoiceUpdate, len(m.updates))
	copy(out, m.updates)
	return out
}

// Login returns a random session token.
func (m *MockAPIClient) Login(ctx context.Context) (string, error) {
	if err := m.simulate(); err != nil {
		return "", err
	}
	if m.OnLogin != nil {
		return m.OnLogin(ctx)
	}
	return "mock-session-" + uuid.New().String()[:8], nil
}

// ListInvoices returns rows for unshipped invoices with the given logistics value.
func (m *MockAPIClient) ListInvoices(ctx context.Context, token, logistics string) ([]map[string]any, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnListInvoices != nil {
		return m.OnListInvoices(ctx, token, logistics)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]map[string]any, 0, len(m.order))
	for _, id := range m.order {
		inv := m.invoices[id]
		if shipped, _ := inv["ZipnovaShipmentId"].(string); shipped != "" {
			continue
		}
		tag, _ := inv["Logistics"].(string)
		if !strings.EqualFold(tag, logistics) {
			continue
		}
		rows = append(rows, map[string]any{
			"InvoiceId": id,
			"Status":    inv["Status"],
			"Logistics": tag,
		})
	}
	return rows, nil
}

// GetInvoice returns a copy of the stored invoice.
func (m *MockAPIClient) GetInvoice(ctx context.Context, token, invoiceID string) (map[string]any, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetInvoice != nil {
		return m.OnGetInvoice(ctx, token, invoiceID)
	}

	inv, ok := m.Invoice(invoiceID)
	if !ok {
		return nil, &APIError{Code: "NOT_FOUND", Description: "invoice " + invoiceID + " not found"}
	}
	return inv, nil
}

// UpdateInvoice records the shipment on the stored invoice.
func (m *MockAPIClient) UpdateInvoice(ctx context.Context, token string, update *InvoiceUpdate) error {
	if err := m.simulate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.updates = append(m.updates, *update)
	m.mu.Unlock()

	if m.OnUpdateInvoice != nil {
		return m.OnUpdateInvoice(ctx, token, update)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[update.InvoiceID]
	if !ok {
		return &APIError{Code: "NOT_FOUND", Description: "invoice " + update.InvoiceID + " not found"}
	}
	inv["ZipnovaShipmentId"] = update.ShipmentID
	inv["ZipnovaTracking"] = update.TrackingCode
	return nil
}

// Probe reports a synthetic healthy endpoint.
func (m *MockAPIClient) Probe(ctx context.Context) orders.Diagnostics {
	if m.SimulateErrors {
		return orders.Diagnostics{URL: "mock://gbp", Error: "simulated connectivity error"}
	}
	return orders.Diagnostics{
		URL:         "mock://gbp",
		Status:      200,
		ContentType: "text/xml",
		Head:        `<?xml version="1.0"?><definitions name="mock"/>`,
	}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}
	return nil
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

var _ APIClient = (*MockAPIClient)(nil)
