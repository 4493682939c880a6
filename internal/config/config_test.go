package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "JurisCorrect API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "juriscorrect.corrections.requested", cfg.DispatchSubject)
	require.Equal(t, 28*time.Second, cfg.CorrectionTimeout)
	require.Equal(t, 12000, cfg.MaxSourceChars)
	require.Equal(t, 30, cfg.MinBodyChars)
	require.EqualValues(t, 10, cfg.MaxUploadMB)
	require.Equal(t, 5*time.Minute, cfg.StatusCacheTTL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("JURIS_APP_PORT", "9090")
	t.Setenv("JURIS_CORRECTION_TIMEOUT_MS", "15000")
	t.Setenv("JURIS_STATUS_CACHE_TTL", "90s")
	t.Setenv("JURIS_STRIPE_PRICE_STANDARD", "price_123")
	t.Setenv("JURIS_STRIPE_PRICE_PREMIUM", "price_456")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 15*time.Second, cfg.CorrectionTimeout)
	require.Equal(t, 90*time.Second, cfg.StatusCacheTTL)
	require.Equal(t, map[string]string{
		"standard": "price_123",
		"premium":  "price_456",
	}, cfg.PlanPrices())
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("JURIS_STATUS_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
