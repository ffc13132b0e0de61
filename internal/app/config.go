package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/soleilcom/gestion/internal/backend"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	BackendURL     string        `envconfig:"BACKEND_URL"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	FinanceCacheTTL time.Duration `envconfig:"FINANCE_CACHE_TTL" default:"10m"`
	FinanceWarmCron string        `envconfig:"FINANCE_WARM_CRON" default:"0 2 * * *"`

	AppLocale      string `envconfig:"APP_LOCALE" default:"fr"`
	CurrencySuffix string `envconfig:"CURRENCY_SUFFIX" default:"FCFA"`

	CompanyName    string `envconfig:"COMPANY_NAME" default:"Soleil Commerce"`
	CompanyAddress string `envconfig:"COMPANY_ADDRESS" default:"Abidjan, Côte d'Ivoire"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if strings.TrimSpace(cfg.BackendURL) == "" {
		cfg.BackendURL = backend.DefaultBaseURL
	}
	if cfg.BackendTimeout <= 0 {
		return nil, errors.New("backend timeout must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
