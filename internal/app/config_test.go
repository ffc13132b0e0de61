package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "http://localhost:5001/api", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 10*time.Minute, cfg.FinanceCacheTTL)
	assert.Equal(t, "FCFA", cfg.CurrencySuffix)
	assert.Equal(t, "fr", cfg.AppLocale)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigBlankBackendURLFallsBack(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "  ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, backend.DefaultBaseURL, cfg.BackendURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("APP_ENV", "production")
	t.Setenv("BACKEND_URL", "https://api.example.com/api")
	t.Setenv("FINANCE_CACHE_TTL", "1h")
	t.Setenv("COMPANY_NAME", "Boutique Awa")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://api.example.com/api", cfg.BackendURL)
	assert.Equal(t, time.Hour, cfg.FinanceCacheTTL)
	assert.Equal(t, "Boutique Awa", cfg.CompanyName)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "c")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_TIMEOUT", "soon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNilConfigIsNotProduction(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
}
