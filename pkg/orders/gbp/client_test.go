package gbp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/tournevent/invoicebridge/pkg/orders"
	"github.com/tournevent/invoicebridge/pkg/orders/gbp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *gbp.MockAPIClient) *gbp.Client {
	logger := otelzap.New(zap.NewNop())
	return gbp.NewWithAPIClient(
		gbp.Config{LogisticsValue: "ZIPNOVA"},
		mockClient,
		logger,
		nil,
	)
}

func TestClient_Authenticate(t *testing.T) {
	client := newTestClient(gbp.NewMockAPIClient())

	token, err := client.Authenticate(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestClient_Authenticate_Error(t *testing.T) {
	mockAPI := gbp.NewMockAPIClient()
	mockAPI.OnLogin = func(ctx context.Context) (string, error) {
		return "", &gbp.APIError{Code: "soap:Client", Description: "Usuario o clave incorrectos", StatusCode: 500}
	}
	client := newTestClient(mockAPI)

	_, err := client.Authenticate(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, orders.ErrAuthentication))
	assert.Contains(t, err.Error(), "Usuario o clave incorrectos")

	var ordersErr *orders.Error
	require.True(t, errors.As(err, &ordersErr))
	assert.Equal(t, 500, ordersErr.StatusCode)
}

func TestClient_ListShippableCandidates(t *testing.T) {
	client := newTestClient(gbp.NewSeededMockAPIClient())
	ctx := context.Background()

	refs, err := client.ListShippableCandidates(ctx, "token")

	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "F0001-00001234", refs[0].InvoiceID)
	assert.Equal(t, "FACTURADO", refs[0].Raw["Status"])
}

func TestClient_ListShippableCandidates_IDResolution(t *testing.T) {
	mockAPI := gbp.NewMockAPIClient()
	mockAPI.OnListInvoices = func(ctx context.Context, token, logistics string) ([]map[string]any, error) {
		assert.Equal(t, "ZIPNOVA", logistics)
		return []map[string]any{
			{"invoice_id": "A-1"},
			{"InvoiceId": float64(1234567)},
			{"InvoiceId": []any{"F1", "F2"}},
			{"Id": 42},
			{"Status": "FACTURADO"},
		}, nil
	}
	client := newTestClient(mockAPI)

	refs, err := client.ListShippableCandidates(context.Background(), "token")

	require.NoError(t, err)
	require.Len(t, refs, 5)
	assert.Equal(t, "A-1", refs[0].InvoiceID)
	assert.Equal(t, "1234567", refs[1].InvoiceID)
	assert.Empty(t, refs[2].InvoiceID)
	assert.Empty(t, refs[3].InvoiceID)
	assert.Empty(t, refs[4].InvoiceID)

	for _, ref := range refs {
		if ref.InvoiceID == "" {
			continue
		}
		inv, err := syncer.Normalize(ref.Raw)
		require.NoError(t, err)
		assert.Equal(t, ref.InvoiceID, inv.InvoiceID)
	}
}

func TestClient_ListShippableCandidates_Error(t *testing.T) {
	mockAPI := gbp.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.ListShippableCandidates(context.Background(), "token")

	assert.True(t, errors.Is(err, orders.ErrListing))
}

func TestClient_FetchDetail(t *testing.T) {
	client := newTestClient(gbp.NewSeededMockAPIClient())

	raw, err := client.FetchDetail(context.Background(), "token", orders.CandidateRef{InvoiceID: "F0001-00001234"})

	require.NoError(t, err)
	assert.Equal(t, "Juana Pérez", raw["CustomerName"])
	delivery, ok := raw["Delivery"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1234", delivery["Number"])
}

func TestClient_FetchDetail_MissingID(t *testing.T) {
	client := newTestClient(gbp.NewSeededMockAPIClient())

	_, err := client.FetchDetail(context.Background(), "token", orders.CandidateRef{})

	assert.True(t, errors.Is(err, orders.ErrFetchDetail))
}

func TestClient_FetchDetail_NotFound(t *testing.T) {
	client := newTestClient(gbp.NewSeededMockAPIClient())

	_, err := client.FetchDetail(context.Background(), "token", orders.CandidateRef{InvoiceID: "nope"})

	assert.True(t, errors.Is(err, orders.ErrFetchDetail))
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestClient_RecordShipment(t *testing.T) {
	mockAPI := gbp.NewSeededMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	err := client.RecordShipment(ctx, "token", "F0001-00001234", "zn-1", "TRK")
	require.NoError(t, err)

	inv, ok := mockAPI.Invoice("F0001-00001234")
	require.True(t, ok)
	assert.Equal(t, "zn-1", inv["ZipnovaShipmentId"])
	assert.Equal(t, "TRK", inv["ZipnovaTracking"])

	// A recorded invoice drops out of the next listing.
	refs, err := client.ListShippableCandidates(ctx, "token")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestClient_RecordShipment_Error(t *testing.T) {
	mockAPI := gbp.NewSeededMockAPIClient()
	mockAPI.OnUpdateInvoice = func(ctx context.Context, token string, update *gbp.InvoiceUpdate) error {
		return &gbp.APIError{Code: "UPDATE_REJECTED", Description: "locked"}
	}
	client := newTestClient(mockAPI)

	err := client.RecordShipment(context.Background(), "token", "F0001-00001234", "zn-1", "")

	assert.True(t, errors.Is(err, orders.ErrWriteBack))
	require.Len(t, mockAPI.Updates(), 1)
	assert.Equal(t, "zn-1", mockAPI.Updates()[0].ShipmentID)
}

func TestClient_Probe(t *testing.T) {
	client := newTestClient(gbp.NewMockAPIClient())

	diag := client.Probe(context.Background())

	assert.Equal(t, 200, diag.Status)
	assert.Empty(t, diag.Error)
}
