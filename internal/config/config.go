// Package config provides centralized configuration management for the registry.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Seed     SeedConfig
	Lookup   LookupConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Audit    AuditConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	// Driver selects the store implementation: postgres or memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string (required for the postgres driver)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// MigrateOnStart applies pending migrations before serving (default: true)
	MigrateOnStart bool `env:"DB_MIGRATE_ON_START" default:"true"`
}

// SeedConfig holds bulk seed ingestion settings.
type SeedConfig struct {
	// Enabled runs the seed pipeline once before the server accepts requests (default: true)
	Enabled bool `env:"SEED_ENABLED" default:"true"`

	// FeedURL is the base URL the per-type CSV documents are fetched from
	FeedURL string `env:"SEED_FEED_URL" default:"https://www.iana.org/assignments/media-types/"`

	// Documents lists the top-level types to fetch, in processing order
	Documents []string `env:"SEED_DOCUMENTS" default:"application,audio,font,image,message,model,multipart,text,video"`

	// FetchTimeout bounds a single document fetch attempt (default: 30s)
	FetchTimeout time.Duration `env:"SEED_FETCH_TIMEOUT" default:"30s"`

	// FetchRetries is the number of retries after a failed fetch (default: 2)
	FetchRetries int `env:"SEED_FETCH_RETRIES" default:"2"`

	// FetchConcurrency is how many documents are fetched in parallel (default: 3)
	FetchConcurrency int `env:"SEED_FETCH_CONCURRENCY" default:"3"`

	// MaxDocumentBytes caps the size of one fetched document (default: 8MB)
	MaxDocumentBytes int64 `env:"SEED_MAX_DOCUMENT_BYTES" default:"8388608"`

	// UserAgent is sent with feed requests; the feed host rejects some default agents
	UserAgent string `env:"SEED_USER_AGENT" default:"Mozilla/5.0 (compatible; mimereg/1.0)"`
}

// LookupConfig holds extension lookup index settings.
type LookupConfig struct {
	// CacheSize is the number of extensions kept in the index; 0 disables it (default: 4096)
	CacheSize int `env:"LOOKUP_CACHE_SIZE" default:"4096"`

	// CacheTTL is how long an indexed result lives (default: 10m)
	CacheTTL time.Duration `env:"LOOKUP_CACHE_TTL" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// WriteLimit is requests per minute for mutating endpoints (default: 60)
	WriteLimit int `env:"RATE_LIMIT_WRITE" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on mutating routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// AuditConfig holds audit attribution settings.
type AuditConfig struct {
	// DefaultActor is recorded when a request carries no X-Actor header (default: api)
	DefaultActor string `env:"AUDIT_DEFAULT_ACTOR" default:"api"`
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
