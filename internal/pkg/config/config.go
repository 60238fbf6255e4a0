package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Admin allowlist backends.
const (
	AdminSourceMongo    = "mongo"
	AdminSourcePostgres = "postgres"
)

// StoreConfig holds the connection settings shared by the service and the seed tool.
type StoreConfig struct {
	MongoURI    string `env:"MONGO_URI,required,notEmpty"`
	MongoDB     string `env:"MONGO_DB" envDefault:"waste"`
	PostgresURL string `env:"POSTGRES_URL"`
	AdminSource string `env:"ADMIN_SOURCE" envDefault:"mongo"`
}

// Config holds all application configuration.
type Config struct {
	Store StoreConfig

	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	PIIRedactionFields string        `env:"PII_REDACTION_FIELDS" envDefault:"password,token,authorization"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr        string        `env:"METRICS_ADDR" envDefault:":9091"`
	RedisURL           string        `env:"REDIS_URL,required,notEmpty"`
	AdminCacheTTL      time.Duration `env:"ADMIN_CACHE_TTL" envDefault:"5m"`
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	FetchRetries       int           `env:"FETCH_RETRIES" envDefault:"2"`
	FetchRetryBackoff  time.Duration `env:"FETCH_RETRY_BACKOFF" envDefault:"200ms"`
	SignInRate         float64       `env:"SIGNIN_RATE" envDefault:"1"`
	SignInBurst        int           `env:"SIGNIN_BURST" envDefault:"5"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	OtelEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelServiceName    string        `env:"OTEL_SERVICE_NAME" envDefault:"waste-watch"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStore reads only the store settings.
func LoadStore() (*StoreConfig, error) {
	_ = godotenv.Load()

	cfg := &StoreConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RedactFields returns the configured PII field names.
func (c *Config) RedactFields() []string {
	return strings.Split(c.PIIRedactionFields, ",")
}

func (s *StoreConfig) validate() error {
	s.AdminSource = strings.ToLower(strings.TrimSpace(s.AdminSource))
	switch s.AdminSource {
	case AdminSourceMongo:
	case AdminSourcePostgres:
		if s.PostgresURL == "" {
			return fmt.Errorf("ADMIN_SOURCE=postgres requires POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown ADMIN_SOURCE %q", s.AdminSource)
	}
	return nil
}
