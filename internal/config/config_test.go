package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/invoicebridge/internal/config"
)

func setMocked(t *testing.T) {
	t.Setenv("GBP_USE_MOCK", "true")
	t.Setenv("ZIPNOVA_USE_MOCK", "true")
}

func TestLoad_Defaults(t *testing.T) {
	setMocked(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://tempuri.org/", cfg.GBPNamespace)
	assert.Equal(t, "Login", cfg.GBPOpLogin)
	assert.Equal(t, "ListInvoices", cfg.GBPOpList)
	assert.Equal(t, "GetInvoice", cfg.GBPOpDetail)
	assert.Equal(t, "UpdateInvoice", cfg.GBPOpUpdate)
	assert.Equal(t, "ZIPNOVA", cfg.GBPLogisticsValue)
	assert.True(t, cfg.GBPOnlyFacturado)
	assert.Equal(t, "https://api.zipnova.com.ar/v2", cfg.ZipnovaBaseURL)
	assert.Equal(t, 2.0, cfg.GenericWeightKG)
	assert.Equal(t, 10.0, cfg.GenericHeightCM)
	assert.Equal(t, 20.0, cfg.GenericWidthCM)
	assert.Equal(t, 30.0, cfg.GenericLengthCM)
	assert.True(t, cfg.SyncEnabled)
	assert.Equal(t, time.Minute, cfg.SyncInterval())
	assert.Equal(t, 45*time.Second, cfg.SyncCallTimeout)
	assert.False(t, cfg.OTELEnabled)
	assert.Equal(t, "invoicebridge", cfg.ServiceName)
}

func TestLoad_Overrides(t *testing.T) {
	setMocked(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SYNC_INTERVAL_SECONDS", "5")
	t.Setenv("SYNC_CALL_TIMEOUT", "3s")
	t.Setenv("GBP_ONLY_FACTURADO", "false")
	t.Setenv("GBP_OP_LIST", "ListarFacturas")
	t.Setenv("GENERIC_WEIGHT_KG", "1.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval())
	assert.Equal(t, 3*time.Second, cfg.SyncCallTimeout)
	assert.False(t, cfg.GBPOnlyFacturado)
	assert.Equal(t, "ListarFacturas", cfg.GBPOpList)
	assert.Equal(t, 1.5, cfg.GenericWeightKG)
}

func TestLoad_RequiresCredentialsWhenNotMocked(t *testing.T) {
	t.Setenv("GBP_USE_MOCK", "false")
	t.Setenv("ZIPNOVA_USE_MOCK", "true")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GBPUser")
}

func TestLoad_FullCredentials(t *testing.T) {
	t.Setenv("GBP_WSDL_URL", "https://gbp.example.com/ws.asmx?wsdl")
	t.Setenv("GBP_USER", "u")
	t.Setenv("GBP_PASS", "p")
	t.Setenv("ZIPNOVA_USER", "zu")
	t.Setenv("ZIPNOVA_PASS", "zp")
	t.Setenv("ZIPNOVA_ACCOUNT_ID", "123")
	t.Setenv("ZIPNOVA_ORIGIN_ID", "456")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, int64(123), cfg.ZipnovaAccountID)
	assert.Equal(t, int64(456), cfg.ZipnovaOriginID)
}

func TestLoad_InvalidNumber(t *testing.T) {
	setMocked(t)
	t.Setenv("SYNC_INTERVAL_SECONDS", "soon")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositivePackage(t *testing.T) {
	setMocked(t)
	t.Setenv("GENERIC_WEIGHT_KG", "0")

	_, err := config.Load()
	assert.Error(t, err)
}
