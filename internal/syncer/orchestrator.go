// Package syncer runs the invoice-to-shipment pipeline: it lists candidate
// invoices from the orders system, ships the eligible ones with the carrier
// and writes the shipment back.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/invoicebridge/internal/telemetry"
	"github.com/tournevent/invoicebridge/pkg/carrier"
	"github.com/tournevent/invoicebridge/pkg/orders"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultCallTimeout bounds each remote call when none is configured.
const DefaultCallTimeout = 45 * time.Second

// Run outcomes as reported to metrics.
const (
	runCompleted  = "completed"
	runAborted    = "aborted"
	runInProgress = "rejected_in_progress"
)

// Config holds the pipeline settings.
type Config struct {
	Policy      Policy
	Payload     PayloadConfig
	CallTimeout time.Duration
}

// Orchestrator executes sync runs. At most one run is in flight at a time.
type Orchestrator struct {
	config  Config
	orders  orders.Gateway
	carrier carrier.Gateway
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	running atomic.Bool

	mu   sync.RWMutex
	last *Summary
}

// New creates an orchestrator. metrics may be nil; a nil tracer uses the
// global provider.
func New(cfg Config, og orders.Gateway, cg carrier.Gateway, logger *otelzap.Logger, metrics *telemetry.Metrics, tracer trace.Tracer) *Orchestrator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if tracer == nil {
		tracer = otel.Tracer("syncer")
	}
	return &Orchestrator{
		config:  cfg,
		orders:  og,
		carrier: cg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// Running reports whether a run is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// LastSummary returns the summary of the most recent finished run, or nil.
func (o *Orchestrator) LastSummary() *Summary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return nil
	}
	s := *o.last
	return &s
}

// Run executes one full sync pass. It returns ErrRunInProgress without
// touching any remote system when another run is active. When
// authentication or listing fails the returned summary carries the error
// and the error wraps ErrRunAborted. Per-candidate failures never abort
// the run, and neither does cancelling ctx: once started, a run finishes
// its sweep with each remote call bounded by CallTimeout.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Ctx(ctx).Warn("Sync run requested while another is in progress")
		o.metrics.RecordRun(runInProgress, 0)
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	// A shipment created with Zipnova must always reach the write-back.
	ctx = context.WithoutCancel(ctx)
	if scoped, ok := o.carrier.(carrier.RunScoped); ok {
		scoped.BeginRun()
	}

	runID := uuid.NewString()
	started := time.Now()

	ctx, span := o.tracer.Start(ctx, "syncer.Run",
		trace.WithAttributes(attribute.String("run_id", runID)),
	)
	defer span.End()

	log := o.logger.Ctx(ctx)
	log.Info("Sync run started", zap.String("run_id", runID))

	token, err := o.authenticate(ctx)
	if err != nil {
		return o.abort(ctx, span, runID, started, &StageError{Stage: StageAuthenticating, Err: err})
	}

	candidates, err := o.list(ctx, token)
	if err != nil {
		return o.abort(ctx, span, runID, started, &StageError{Stage: StageListing, Err: err})
	}
	log.Info("Candidates listed", zap.String("run_id", runID), zap.Int("count", len(candidates)))

	outcomes := make([]Outcome, 0, len(candidates))
	for _, ref := range candidates {
		outcomes = append(outcomes, o.processCandidate(ctx, token, ref))
	}

	summary := Summarize(outcomes)
	o.finish(&summary, runID, started)

	span.SetAttributes(
		attribute.Int("processed", summary.Processed),
		attribute.Int("skipped", summary.Skipped),
		attribute.Int("errors", summary.Errors),
	)
	o.metrics.RecordRun(runCompleted, time.Since(started).Seconds())
	log.Info("Sync run finished",
		zap.String("run_id", runID),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Int64("duration_ms", summary.DurationMS),
	)

	return &summary, nil
}

func (o *Orchestrator) abort(ctx context.Context, span trace.Span, runID string, started time.Time, stageErr *StageError) (*Summary, error) {
	summary := Summary{Details: []Detail{}, Error: stageErr.Error()}
	o.finish(&summary, runID, started)

	span.RecordError(stageErr)
	span.SetStatus(codes.Error, stageErr.Error())
	o.recordRemoteError(stageErr)
	o.metrics.RecordRun(runAborted, time.Since(started).Seconds())
	o.logger.Ctx(ctx).Error("Sync run aborted",
		zap.String("run_id", runID),
		zap.String("stage", string(stageErr.Stage)),
		zap.Error(stageErr.Err),
	)

	return &summary, fmt.Errorf("%w: %w", ErrRunAborted, stageErr)
}

func (o *Orchestrator) finish(s *Summary, runID string, started time.Time) {
	finished := time.Now()
	s.RunID = runID
	s.StartedAt = started.UTC()
	s.FinishedAt = finished.UTC()
	s.DurationMS = finished.Sub(started).Milliseconds()

	o.mu.Lock()
	stored := *s
	o.last = &stored
	o.mu.Unlock()
}

func (o *Orchestrator) authenticate(ctx context.Context) (orders.SessionToken, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	return o.orders.Authenticate(ctx)
}

func (o *Orchestrator) list(ctx context.Context, token orders.SessionToken) ([]orders.CandidateRef, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	return o.orders.ListShippableCandidates(ctx, token)
}

// processCandidate drives one candidate through fetch, normalize, policy,
// build, create and write-back. Every failure, including a panic in a
// gateway, becomes a failed outcome.
func (o *Orchestrator) processCandidate(ctx context.Context, token orders.SessionToken, ref orders.CandidateRef) (out Outcome) {
	ctx, span := o.tracer.Start(ctx, "syncer.processCandidate",
		trace.WithAttributes(attribute.String("invoice_id", ref.InvoiceID)),
	)
	defer span.End()
	log := o.logger.Ctx(ctx)

	invoiceID := ref.InvoiceID
	stage := StageFetching
	var shipment *carrier.ShipmentResult

	fail := func(err error) Outcome {
		stageErr := &StageError{Stage: stage, InvoiceID: invoiceID, Err: err}
		span.RecordError(stageErr)
		span.SetStatus(codes.Error, stageErr.Error())
		o.recordRemoteError(stageErr)
		o.metrics.RecordCandidate(string(OutcomeFailed), string(stage))

		fields := []zap.Field{
			zap.String("invoice_id", invoiceID),
			zap.String("stage", string(stage)),
			zap.Error(err),
		}
		failed := Outcome{InvoiceID: invoiceID, Status: OutcomeFailed, Err: stageErr}
		if shipment != nil {
			// The carrier already holds a shipment the orders system does not know about.
			failed.ShipmentID = shipment.ShipmentID
			fields = append(fields, zap.String("shipment_id", shipment.ShipmentID))
			log.Error("Shipment created but write-back failed", fields...)
		} else {
			log.Warn("Candidate failed", fields...)
		}
		return failed
	}

	defer func() {
		if r := recover(); r != nil {
			out = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	raw, err := o.fetch(ctx, token, ref)
	if err != nil {
		return fail(err)
	}

	stage = StageNormalizing
	inv, err := Normalize(raw)
	if err != nil {
		return fail(err)
	}
	invoiceID = inv.InvoiceID

	if reason := IneligibleReason(inv, o.config.Policy); reason != "" {
		o.metrics.RecordCandidate(string(OutcomeSkipped), reason)
		log.Debug("Candidate skipped",
			zap.String("invoice_id", invoiceID),
			zap.String("reason", reason),
		)
		return Outcome{InvoiceID: invoiceID, Status: OutcomeSkipped, SkipReason: reason}
	}

	stage = StageBuilding
	req, err := BuildShipmentRequest(inv, o.config.Payload)
	if err != nil {
		return fail(err)
	}

	stage = StageCreating
	shipment, err = o.create(ctx, req)
	if err != nil {
		shipment = nil
		return fail(err)
	}
	if shipment == nil || shipment.ShipmentID == "" {
		shipment = nil
		return fail(carrier.ErrInvalidResponse)
	}

	stage = StageWritingBack
	if err := o.writeBack(ctx, token, invoiceID, shipment); err != nil {
		return fail(err)
	}

	o.metrics.RecordCandidate(string(OutcomeProcessed), "")
	log.Info("Shipment created",
		zap.String("invoice_id", invoiceID),
		zap.String("shipment_id", shipment.ShipmentID),
		zap.String("tracking", shipment.TrackingCode),
	)
	return Outcome{
		InvoiceID:    invoiceID,
		Status:       OutcomeProcessed,
		ShipmentID:   shipment.ShipmentID,
		TrackingCode: shipment.TrackingCode,
	}
}

func (o *Orchestrator) fetch(ctx context.Context, token orders.SessionToken, ref orders.CandidateRef) (orders.RawInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	return o.orders.FetchDetail(ctx, token, ref)
}

func (o *Orchestrator) create(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	return o.carrier.CreateShipment(ctx, req)
}

func (o *Orchestrator) writeBack(ctx context.Context, token orders.SessionToken, invoiceID string, shipment *carrier.ShipmentResult) error {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	return o.orders.RecordShipment(ctx, token, invoiceID, shipment.ShipmentID, shipment.TrackingCode)
}

func (o *Orchestrator) recordRemoteError(err error) {
	var ordersErr *orders.Error
	var carrierErr *carrier.Error
	switch {
	case errors.As(err, &ordersErr):
		o.metrics.RecordError(ordersErr.System, ordersErr.Code)
	case errors.As(err, &carrierErr):
		o.metrics.RecordError(carrierErr.Carrier, carrierErr.Code)
	}
}
