package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/invoicebridge/internal/server"
	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/tournevent/invoicebridge/internal/telemetry"
	"github.com/tournevent/invoicebridge/pkg/orders"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type fakeRunner struct {
	summary *syncer.Summary
	err     error
	last    *syncer.Summary
}

func (f *fakeRunner) Run(ctx context.Context) (*syncer.Summary, error) { return f.summary, f.err }

func (f *fakeRunner) LastSummary() *syncer.Summary { return f.last }

func (f *fakeRunner) Running() bool { return false }

type fakeProber struct{}

func (fakeProber) Probe(ctx context.Context) orders.Diagnostics {
	return orders.Diagnostics{URL: "https://gbp.example.com/ws?wsdl", Status: 200, ContentType: "text/xml", Head: "<definitions/>"}
}

func newTestServer(t *testing.T, runner *fakeRunner) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	metrics.RecordRun("completed", 0.2)

	logger := otelzap.New(zap.NewNop())
	return server.New(server.Config{Port: 8080}, runner, fakeProber{}, reg, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestServer_Diagnostics(t *testing.T) {
	h := newTestServer(t, &fakeRunner{})

	for _, path := range []string{"/diag/orders", "/diag/wsdl"} {
		rec := do(t, h, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var diag orders.Diagnostics
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&diag))
		assert.Equal(t, 200, diag.Status)
		assert.Equal(t, "text/xml", diag.ContentType)
	}
}

func TestServer_Sync(t *testing.T) {
	summary := &syncer.Summary{RunID: "run-1", Processed: 2, Details: []syncer.Detail{}}
	rec := do(t, newTestServer(t, &fakeRunner{summary: summary}), http.MethodPost, "/sync")

	require.Equal(t, http.StatusOK, rec.Code)
	var got syncer.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Processed)
}

func TestServer_SyncAborted(t *testing.T) {
	summary := &syncer.Summary{RunID: "run-2", Details: []syncer.Detail{}, Error: "listing: down"}
	runner := &fakeRunner{summary: summary, err: fmt.Errorf("%w: down", syncer.ErrRunAborted)}

	rec := do(t, newTestServer(t, runner), http.MethodPost, "/sync")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "listing: down")
}

func TestServer_SyncInProgress(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{err: syncer.ErrRunInProgress}), http.MethodPost, "/sync")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "in progress")
}

func TestServer_SyncUnexpectedError(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{err: errors.New("boom")}), http.MethodPost, "/sync")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_SyncRequiresPost(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}), http.MethodGet, "/sync")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_LastSync(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}), http.MethodGet, "/sync/last")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	last := &syncer.Summary{RunID: "run-9", Details: []syncer.Detail{}}
	rec = do(t, newTestServer(t, &fakeRunner{last: last}), http.MethodGet, "/sync/last")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-9"`)
}

func TestServer_Metrics(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}), http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invoicebridge_sync_runs_total{outcome="completed"} 1`)
}

func TestServer_GraphQL(t *testing.T) {
	h := newTestServer(t, &fakeRunner{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ health { ok running } }"}`))
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"health":{"ok":true,"running":false}}}`, rec.Body.String())
}
