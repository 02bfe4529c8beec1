// Package zipnova provides integration with the Zipnova shipping API.
package zipnova

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tournevent/invoicebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "zipnova"

// Breaker defaults. Only transport failures and 5xx answers count against
// the breaker; a 4xx is a problem with one invoice, not with Zipnova. The
// breaker lives for one sync run: BeginRun replaces it, so an open breaker
// never fast-fails the next run's candidates.
const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 60 * time.Second
)

// Config holds Zipnova configuration.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	UseMock  bool // When true, uses mock API client
}

// Client is the Zipnova carrier client.
// It implements carrier.Gateway and delegates API calls to the
// underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer

	mu      sync.Mutex
	breaker *gobreaker.CircuitBreaker
}

// New creates a new Zipnova client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:  cfg.BaseURL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Zipnova client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = otel.Tracer(carrierName)
	}

	c := &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
	c.breaker = c.newBreaker()
	return c
}

// BeginRun starts a fresh circuit breaker for a new sync run.
func (c *Client) BeginRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breaker = c.newBreaker()
}

func (c *Client) currentBreaker() *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breaker
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        carrierName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// CreateShipment creates a shipment with Zipnova.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	ctx, span := c.tracer.Start(ctx, "zipnova.CreateShipment",
		trace.WithAttributes(attribute.String("external_id", req.ExternalID)),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Creating Zipnova shipment",
		zap.String("external_id", req.ExternalID),
		zap.Float64("declared_value", req.DeclaredValue),
		zap.Int("item_count", len(req.Items)),
	)

	out, err := c.currentBreaker().Execute(func() (interface{}, error) {
		return c.apiClient.CreateShipment(ctx, req)
	})
	if err != nil {
		err = toCarrierError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Ctx(ctx).Error("Zipnova API error", zap.Error(err))
		return nil, err
	}

	result, err := extractResult(out.(*ShipmentResponse))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Ctx(ctx).Error("Zipnova response without shipment id",
			zap.String("external_id", req.ExternalID),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("shipment_id", result.ShipmentID))
	return result, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func extractResult(resp *ShipmentResponse) (*carrier.ShipmentResult, error) {
	if resp == nil || resp.Body == nil {
		return nil, carrier.NewError(carrierName, carrier.CodeInvalidResponse, "empty response body")
	}

	shipmentID := firstString(resp.Body, "id", "shipment_id")
	if shipmentID == "" {
		raw, _ := json.Marshal(resp.Body)
		return nil, carrier.NewError(carrierName, carrier.CodeInvalidResponse,
			"response without shipment id: "+truncate(string(raw), 300)).
			WithStatusCode(resp.StatusCode)
	}

	return &carrier.ShipmentResult{
		ShipmentID:   shipmentID,
		TrackingCode: firstString(resp.Body, "tracking", "tracking_number"),
	}, nil
}

func firstString(body map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringify(body[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func toCarrierError(err error) error {
	var carrierErr *carrier.Error
	if errors.As(err, &carrierErr) {
		return err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return carrier.NewError(carrierName, carrier.CodeRejected, "circuit breaker open").WithCause(err)
	}

	if errors.Is(err, ErrMalformedResponse) {
		return carrier.NewError(carrierName, carrier.CodeInvalidResponse, "undecodable response").WithCause(err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return carrier.NewError(carrierName, carrier.CodeRejected, "shipment rejected").
			WithStatusCode(apiErr.StatusCode).
			WithCause(err)
	}

	return carrier.NewError(carrierName, carrier.CodeRejected, "request failed").WithCause(err)
}

// countsAsHealthy reports whether a call outcome should be treated as a
// success by the circuit breaker.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrEncodeRequest) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return false
	}
	return errors.Is(err, context.Canceled)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	_ carrier.Gateway   = (*Client)(nil)
	_ carrier.RunScoped = (*Client)(nil)
)
