package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tournevent/invoicebridge/internal/config"
	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/tournevent/invoicebridge/internal/telemetry"
	"github.com/tournevent/invoicebridge/pkg/carrier/zipnova"
	"github.com/tournevent/invoicebridge/pkg/orders/gbp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// app holds the wired service components shared by all commands.
type app struct {
	config       *config.Config
	logger       *otelzap.Logger
	registry     *prometheus.Registry
	orders       *gbp.Client
	orchestrator *syncer.Orchestrator
	shutdown     func(context.Context) error
}

func initApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, zap.String("service", cfg.ServiceName))
	if err != nil {
		return nil, err
	}

	tracer, shutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracer = otel.Tracer(cfg.ServiceName)
		shutdown = func(context.Context) error { return nil }
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	ordersClient := initOrders(cfg, logger, tracer)
	carrierClient := initCarrier(cfg, logger, tracer)

	orchestrator := syncer.New(syncer.Config{
		Policy: syncer.Policy{
			OnlyInvoiced: cfg.GBPOnlyFacturado,
			CarrierTag:   cfg.GBPLogisticsValue,
		},
		Payload: syncer.PayloadConfig{
			AccountID: cfg.ZipnovaAccountID,
			OriginID:  cfg.ZipnovaOriginID,
			Package: syncer.PackageSpec{
				WeightKG: cfg.GenericWeightKG,
				HeightCM: cfg.GenericHeightCM,
				WidthCM:  cfg.GenericWidthCM,
				LengthCM: cfg.GenericLengthCM,
			},
		},
		CallTimeout: cfg.SyncCallTimeout,
	}, ordersClient, carrierClient, logger, metrics, tracer)

	return &app{
		config:       cfg,
		logger:       logger,
		registry:     registry,
		orders:       ordersClient,
		orchestrator: orchestrator,
		shutdown:     shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("Failed to flush traces", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return otel.Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

func initOrders(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *gbp.Client {
	return gbp.New(gbp.Config{
		WSDLURL:   cfg.GBPWSDLURL,
		Username:  cfg.GBPUser,
		Password:  cfg.GBPPass,
		Namespace: cfg.GBPNamespace,
		Operations: gbp.Operations{
			Login:  cfg.GBPOpLogin,
			List:   cfg.GBPOpList,
			Detail: cfg.GBPOpDetail,
			Update: cfg.GBPOpUpdate,
		},
		LogisticsValue: cfg.GBPLogisticsValue,
		Timeout:        cfg.GBPTimeout,
		UseMock:        cfg.GBPUseMock,
	}, logger, tracer)
}

func initCarrier(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *zipnova.Client {
	return zipnova.New(zipnova.Config{
		BaseURL:  cfg.ZipnovaBaseURL,
		Username: cfg.ZipnovaUser,
		Password: cfg.ZipnovaPass,
		Timeout:  cfg.ZipnovaTimeout,
		UseMock:  cfg.ZipnovaUseMock,
	}, logger, tracer)
}
