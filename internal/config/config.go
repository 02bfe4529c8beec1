// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// GBP
	GBPWSDLURL        string        `envconfig:"GBP_WSDL_URL" validate:"required_unless=GBPUseMock true"`
	GBPUser           string        `envconfig:"GBP_USER" validate:"required_unless=GBPUseMock true"`
	GBPPass           string        `envconfig:"GBP_PASS" validate:"required_unless=GBPUseMock true"`
	GBPNamespace      string        `envconfig:"GBP_NAMESPACE" default:"http://tempuri.org/"`
	GBPOpLogin        string        `envconfig:"GBP_OP_LOGIN" default:"Login" validate:"required"`
	GBPOpList         string        `envconfig:"GBP_OP_LIST" default:"ListInvoices" validate:"required"`
	GBPOpDetail       string        `envconfig:"GBP_OP_DETAIL" default:"GetInvoice" validate:"required"`
	GBPOpUpdate       string        `envconfig:"GBP_OP_UPDATE" default:"UpdateInvoice" validate:"required"`
	GBPTimeout        time.Duration `envconfig:"GBP_TIMEOUT" default:"30s"`
	GBPUseMock        bool          `envconfig:"GBP_USE_MOCK" default:"false"`
	GBPLogisticsValue string        `envconfig:"GBP_LOGISTICS_ZIPNOVA_VALUE" default:"ZIPNOVA" validate:"required"`
	GBPOnlyFacturado  bool          `envconfig:"GBP_ONLY_FACTURADO" default:"true"`

	// Zipnova
	ZipnovaBaseURL   string        `envconfig:"ZIPNOVA_BASE_URL" default:"https://api.zipnova.com.ar/v2" validate:"required,url"`
	ZipnovaUser      string        `envconfig:"ZIPNOVA_USER" validate:"required_unless=ZipnovaUseMock true"`
	ZipnovaPass      string        `envconfig:"ZIPNOVA_PASS" validate:"required_unless=ZipnovaUseMock true"`
	ZipnovaAccountID int64         `envconfig:"ZIPNOVA_ACCOUNT_ID" validate:"required_unless=ZipnovaUseMock true"`
	ZipnovaOriginID  int64         `envconfig:"ZIPNOVA_ORIGIN_ID" validate:"required_unless=ZipnovaUseMock true"`
	ZipnovaTimeout   time.Duration `envconfig:"ZIPNOVA_TIMEOUT" default:"30s"`
	ZipnovaUseMock   bool          `envconfig:"ZIPNOVA_USE_MOCK" default:"false"`

	// Generic package
	GenericWeightKG float64 `envconfig:"GENERIC_WEIGHT_KG" default:"2" validate:"gt=0"`
	GenericHeightCM float64 `envconfig:"GENERIC_HEIGHT_CM" default:"10" validate:"gt=0"`
	GenericWidthCM  float64 `envconfig:"GENERIC_WIDTH_CM" default:"20" validate:"gt=0"`
	GenericLengthCM float64 `envconfig:"GENERIC_LENGTH_CM" default:"30" validate:"gt=0"`

	// Sync
	SyncEnabled         bool          `envconfig:"SYNC_ENABLED" default:"true"`
	SyncIntervalSeconds int           `envconfig:"SYNC_INTERVAL_SECONDS" default:"60" validate:"min=1"`
	SyncCallTimeout     time.Duration `envconfig:"SYNC_CALL_TIMEOUT" default:"45s"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318" validate:"required_if=OTELEnabled true"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"invoicebridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings. Credentials are only required for
// systems that are not mocked.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SyncInterval returns the scheduler interval.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// Attributes returns OpenTelemetry resource attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("gbp.mock", c.GBPUseMock),
		attribute.Bool("zipnova.mock", c.ZipnovaUseMock),
		attribute.Bool("sync.enabled", c.SyncEnabled),
		attribute.Int("sync.interval_seconds", c.SyncIntervalSeconds),
	}
}
