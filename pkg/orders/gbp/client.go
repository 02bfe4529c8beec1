// Package gbp provides integration with the GBP invoicing web service.
package gbp

import (
	"context"
	"errors"
	"time"

	"github.com/tournevent/invoicebridge/pkg/orders"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const systemName = "gbp"

// Config holds GBP configuration.
type Config struct {
	WSDLURL        string
	Username       string
	Password       string
	Namespace      string
	Operations     Operations
	LogisticsValue string // carrier tag used to narrow the listing
	Timeout        time.Duration
	UseMock        bool // When true, uses a seeded in-memory API client
}

// Client is the GBP orders gateway.
// It implements orders.Gateway and delegates calls to the underlying
// APIClient (mock or SOAP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new GBP client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewSeededMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{
			WSDLURL:    cfg.WSDLURL,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Namespace:  cfg.Namespace,
			Operations: cfg.Operations,
			Timeout:    cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new GBP client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = otel.Tracer(systemName)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Authenticate opens a GBP session.
func (c *Client) Authenticate(ctx context.Context) (orders.SessionToken, error) {
	ctx, span := c.tracer.Start(ctx, "gbp.Authenticate")
	defer span.End()

	token, err := c.apiClient.Login(ctx)
	if err != nil {
		return "", c.fail(ctx, span, orders.CodeAuthentication, "login failed", err)
	}
	return orders.SessionToken(token), nil
}

// ListShippableCandidates lists invoices tagged for the carrier without a shipment.
func (c *Client) ListShippableCandidates(ctx context.Context, token orders.SessionToken) ([]orders.CandidateRef, error) {
	ctx, span := c.tracer.Start(ctx, "gbp.ListShippableCandidates")
	defer span.End()

	rows, err := c.apiClient.ListInvoices(ctx, string(token), c.config.LogisticsValue)
	if err != nil {
		return nil, c.fail(ctx, span, orders.CodeListing, "listing failed", err)
	}

	refs := make([]orders.CandidateRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, orders.CandidateRef{
			InvoiceID: listingID(row),
			Raw:       orders.RawInvoice(row),
		})
	}

	span.SetAttributes(attribute.Int("candidate_count", len(refs)))
	c.logger.Ctx(ctx).Info("Listed GBP candidates", zap.Int("count", len(refs)))
	return refs, nil
}

// FetchDetail fetches the full invoice record for a candidate.
func (c *Client) FetchDetail(ctx context.Context, token orders.SessionToken, ref orders.CandidateRef) (orders.RawInvoice, error) {
	ctx, span := c.tracer.Start(ctx, "gbp.FetchDetail",
		trace.WithAttributes(attribute.String("invoice_id", ref.InvoiceID)),
	)
	defer span.End()

	if ref.InvoiceID == "" {
		err := orders.NewError(systemName, orders.CodeFetchDetail, "listing row without invoice id")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	raw, err := c.apiClient.GetInvoice(ctx, string(token), ref.InvoiceID)
	if err != nil {
		return nil, c.fail(ctx, span, orders.CodeFetchDetail, "invoice "+ref.InvoiceID, err)
	}
	return orders.RawInvoice(raw), nil
}

// RecordShipment stores the shipment identifiers on the invoice.
func (c *Client) RecordShipment(ctx context.Context, token orders.SessionToken, invoiceID, shipmentID, trackingCode string) error {
	ctx, span := c.tracer.Start(ctx, "gbp.RecordShipment",
		trace.WithAttributes(
			attribute.String("invoice_id", invoiceID),
			attribute.String("shipment_id", shipmentID),
		),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Writing shipment back to GBP",
		zap.String("invoice_id", invoiceID),
		zap.String("shipment_id", shipmentID),
		zap.String("tracking", trackingCode),
	)

	err := c.apiClient.UpdateInvoice(ctx, string(token), &InvoiceUpdate{
		InvoiceID:    invoiceID,
		ShipmentID:   shipmentID,
		TrackingCode: trackingCode,
	})
	if err != nil {
		return c.fail(ctx, span, orders.CodeWriteBack, "invoice "+invoiceID, err)
	}
	return nil
}

// Probe reports raw connectivity diagnostics for the GBP endpoint.
func (c *Client) Probe(ctx context.Context) orders.Diagnostics {
	return c.apiClient.Probe(ctx)
}

func (c *Client) fail(ctx context.Context, span trace.Span, code, message string, cause error) error {
	err := orders.NewError(systemName, code, message).WithCause(cause)

	var apiErr *APIError
	if errors.As(cause, &apiErr) {
		err.WithStatusCode(apiErr.StatusCode)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Ctx(ctx).Error("GBP API error", zap.String("code", code), zap.Error(cause))
	return err
}

// listingID resolves a row id the way the detail normalizer does. An
// unresolvable id stays empty and FetchDetail rejects it.
func listingID(row map[string]any) string {
	id, _ := orders.InvoiceID(row)
	return id
}

var (
	_ orders.Gateway = (*Client)(nil)
	_ orders.Prober  = (*Client)(nil)
)
