// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sources  SourceConfig
	Scoring  ScoringConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// SourceConfig says where the three datasets come from.
// With BaseURL set, each file name is resolved against it and fetched over
// HTTP; otherwise it is read from Dir.
type SourceConfig struct {
	// Dir holds the dataset files (default: data)
	Dir string `env:"SOURCE_DIR" default:"data"`

	// BaseURL switches to HTTP sources when set
	BaseURL string `env:"SOURCE_BASE_URL"`

	TariffFile     string `env:"SOURCE_TARIFF_FILE" default:"Tariff Calculations.csv"`
	PopulationFile string `env:"SOURCE_POPULATION_FILE" default:"Tariff Calculations plus Population.csv"`
	HistoricalFile string `env:"SOURCE_HISTORICAL_FILE" default:"34_years_world_export_import_dataset.csv"`

	// FetchTimeout bounds the whole startup load (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// Concurrent fetches the sources in parallel (default: true)
	Concurrent bool `env:"SOURCE_FETCH_CONCURRENT" default:"true"`

	// MaxSize is the largest dataset accepted, in bytes (default: 100MB)
	MaxSize int64 `env:"SOURCE_MAX_SIZE" default:"104857600"`
}

// Scoring modes.
const (
	ScoringHash   = "hash"
	ScoringTable  = "table"
	ScoringRandom = "random"
)

// ScoringConfig selects how DigitalAccessScore is derived.
type ScoringConfig struct {
	// Mode is one of hash, table, random (default: hash)
	Mode string `env:"SCORING_MODE" default:"hash"`

	// TablePath is a Country;Score file, required for table mode
	TablePath string `env:"SCORING_TABLE_PATH"`

	// Default is the score for countries missing from the table (default: 50)
	Default int `env:"SCORING_DEFAULT" default:"50"`

	// Seed fixes the random scorer; 0 picks one at startup
	Seed int64 `env:"SCORING_SEED" default:"0"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is how many requests an IP may make at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Remote reports whether datasets are fetched over HTTP.
func (c *SourceConfig) Remote() bool {
	return c.BaseURL != ""
}
