// Package config loads the normalizer's settings from environment variables.
// Defaults cover a local CLI run; Validate rejects misconfiguration before
// any input is read.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Normalize NormalizeConfig
	Output    OutputConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// NormalizeConfig controls how inputs are read and keys are extracted.
type NormalizeConfig struct {
	// SampleSize is the number of bytes sniffed for the delimiter (default: 1024)
	SampleSize int `env:"SNIFF_SAMPLE_SIZE" default:"1024"`

	// NameRule filters name-cell key candidates: no-digits or any (default: no-digits)
	NameRule string `env:"NAME_RULE" default:"no-digits"`

	// Encoding is the source text encoding, e.g. windows-1252 (default: UTF-8)
	Encoding string `env:"SOURCE_ENCODING"`

	// MaxFileSize is the largest accepted input in bytes (default: 512MB)
	MaxFileSize int64 `env:"MAX_FILE_SIZE" default:"536870912"`

	// Shards is the number of parallel aggregation shards (default: 1)
	Shards int `env:"SHARDS" default:"1"`
}

// OutputConfig controls where local JSON output is written.
type OutputConfig struct {
	// Dir is the output directory; empty writes next to the input
	Dir string `env:"OUTPUT_DIR"`

	// Suffix replaces the input extension (default: out.json)
	Suffix string `env:"OUTPUT_SUFFIX" default:"out.json"`
}

// StorageConfig holds S3-compatible object storage settings. Output goes to
// the bucket instead of the filesystem when Endpoint and Bucket are set.
type StorageConfig struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" default:"us-east-1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET"`
	Prefix    string `env:"S3_PREFIX"`
	UseSSL    bool   `env:"S3_USE_SSL" default:"true"`
}

// Enabled reports whether object storage is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// DatabaseConfig holds settings for reading a PostgreSQL table.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string read by --database
	// Supports both DATABASE_URL and DB_URL env vars
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns bounds the source connection pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for one normalization (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	// MaxConcurrentRuns is the number of normalizations served at once (default: 4)
	MaxConcurrentRuns int `env:"MAX_CONCURRENT_RUNS" default:"4"`

	// MaxWaitTime is how long a request waits for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"RUN_MAX_WAIT_TIME" default:"30s"`
}

// SecurityConfig guards the HTTP surface.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
