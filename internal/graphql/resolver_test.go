package graphql_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/invoicebridge/internal/graphql"
	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type fakeRunner struct {
	summary *syncer.Summary
	err     error
	last    *syncer.Summary
	running bool
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context) (*syncer.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeRunner) LastSummary() *syncer.Summary { return f.last }

func (f *fakeRunner) Running() bool { return f.running }

func sampleSummary() *syncer.Summary {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &syncer.Summary{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		DurationMS: 1500,
		Processed:  1,
		Skipped:    2,
		Errors:     1,
		Details: []syncer.Detail{
			{InvoiceID: "F1", Status: syncer.OutcomeProcessed, ShipmentID: "zn-1", Tracking: "T1"},
			{InvoiceID: "F2", Status: syncer.OutcomeFailed, Stage: syncer.StageCreating, Error: "rejected"},
		},
	}
}

func newResolver(runner *fakeRunner) *graphql.Resolver {
	return graphql.NewResolver(runner, otelzap.New(zap.NewNop()))
}

func execute(t *testing.T, r *graphql.Resolver, query string) graphql.Response {
	t.Helper()
	resp, ok := r.Execute(context.Background(), graphql.Request{Query: query})
	require.True(t, ok, "document rejected: %v", resp.Errors)
	return resp
}

func TestExecute_Health(t *testing.T) {
	r := newResolver(&fakeRunner{running: true})

	resp := execute(t, r, `{ health { ok running } }`)

	assert.Empty(t, resp.Errors)
	assert.Equal(t, map[string]any{"ok": true, "running": true}, resp.Data["health"])
}

func TestExecute_LastRunEmpty(t *testing.T) {
	r := newResolver(&fakeRunner{})

	resp := execute(t, r, `query { lastRun { runId } }`)

	assert.Empty(t, resp.Errors)
	assert.Nil(t, resp.Data["lastRun"])
}

func TestExecute_LastRunProjection(t *testing.T) {
	r := newResolver(&fakeRunner{last: sampleSummary()})

	resp := execute(t, r, `
		query Last {
			lastRun {
				__typename
				id: runId
				processed
				error
				details { invoiceId stage ...Ids }
			}
		}
		fragment Ids on RunDetail { shipmentId }
	`)
	require.Empty(t, resp.Errors)

	run, ok := resp.Data["lastRun"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RunSummary", run["__typename"])
	assert.Equal(t, "run-1", run["id"])
	assert.Equal(t, 1, run["processed"])
	assert.Nil(t, run["error"])
	assert.NotContains(t, run, "skipped")

	details, ok := run["details"].([]any)
	require.True(t, ok)
	require.Len(t, details, 2)
	assert.Equal(t, map[string]any{"invoiceId": "F1", "stage": nil, "shipmentId": "zn-1"}, details[0])
	assert.Equal(t, map[string]any{"invoiceId": "F2", "stage": "creating", "shipmentId": nil}, details[1])
}

func TestExecute_SyncNow(t *testing.T) {
	runner := &fakeRunner{summary: sampleSummary()}
	r := newResolver(runner)

	resp := execute(t, r, `mutation { syncNow { runId processed skipped errors } }`)

	assert.Empty(t, resp.Errors)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, map[string]any{"runId": "run-1", "processed": 1, "skipped": 2, "errors": 1}, resp.Data["syncNow"])
}

func TestExecute_SyncNowAborted(t *testing.T) {
	summary := &syncer.Summary{RunID: "run-2", Details: []syncer.Detail{}, Error: "listing: down"}
	r := newResolver(&fakeRunner{summary: summary, err: errors.Join(syncer.ErrRunAborted, errors.New("down"))})

	resp := execute(t, r, `mutation { syncNow { runId error } }`)

	assert.Empty(t, resp.Errors)
	assert.Equal(t, map[string]any{"runId": "run-2", "error": "listing: down"}, resp.Data["syncNow"])
}

func TestExecute_SyncNowInProgress(t *testing.T) {
	r := newResolver(&fakeRunner{err: syncer.ErrRunInProgress})

	resp := execute(t, r, `mutation { syncNow { runId } }`)

	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "already in progress")
	assert.Contains(t, resp.Data, "syncNow")
	assert.Nil(t, resp.Data["syncNow"])
}

func TestExecute_RejectsInvalidDocument(t *testing.T) {
	r := newResolver(&fakeRunner{})

	tests := map[string]string{
		"syntax":        `{ health {`,
		"unknown field": `{ carriers }`,
		"missing sub":   `{ lastRun }`,
	}
	for name, query := range tests {
		t.Run(name, func(t *testing.T) {
			resp, ok := r.Execute(context.Background(), graphql.Request{Query: query})
			assert.False(t, ok)
			assert.NotEmpty(t, resp.Errors)
		})
	}
}

func TestExecute_UnknownOperationName(t *testing.T) {
	r := newResolver(&fakeRunner{})

	resp, ok := r.Execute(context.Background(), graphql.Request{
		Query:         `query A { health { ok } } query B { health { running } }`,
		OperationName: "C",
	})
	assert.False(t, ok)
	assert.NotEmpty(t, resp.Errors)
}

func TestServeHTTP(t *testing.T) {
	r := newResolver(&fakeRunner{})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"query":"{ health { ok } }"}`)
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", body))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, map[string]any{"health": map[string]any{"ok": true}}, resp["data"])
		assert.NotContains(t, resp, "errors")
	})
}
