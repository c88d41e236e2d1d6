// Package config provides application configuration through environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/provenance/internal/errors"
)

// ErrConfigKeyMissing indicates a required configuration key is absent or malformed.
// The wrapped message names the offending key.
var ErrConfigKeyMissing = apperrors.Wrap(apperrors.ErrInvalidInput, "configuration key missing")

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the API server will bind to.
	ServerHost string
	// ServerPort is the port number the API server will listen on.
	ServerPort int

	// DBDriver is the database driver to use ("sqlite3", "postgres" or "mysql").
	DBDriver string
	// DBPath is the SQLite database file location (sqlite3 driver only).
	DBPath string
	// DBConnectionString is the connection string for postgres/mysql drivers.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// EncryptionKey is the base64-encoded 32-byte key used to seal event envelopes.
	// When KMSProvider is set, this holds the KMS-wrapped key ciphertext instead.
	EncryptionKey string
	// EncryptionAlgorithm selects the AEAD ("aes-gcm" or "chacha20-poly1305").
	EncryptionAlgorithm string

	// KMSProvider is the KMS provider used to unwrap the encryption key
	// (e.g., "gcpkms", "awskms", "azurekeyvault", "hashivault", "localsecrets").
	// Empty means the encryption key is used as-is.
	KMSProvider string
	// KMSKeyURI is the URI for the wrapping key in the KMS.
	KMSKeyURI string

	// DispatcherWorkers is the number of concurrent replication workers.
	DispatcherWorkers int

	// PublisherGatewayURL is the base URL of the content-addressed storage gateway API.
	PublisherGatewayURL string
	// PublisherTimeout is the per-publish HTTP timeout.
	PublisherTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RateLimitEnabled indicates whether per-client rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Database configuration
		DBDriver:             env.GetString("DB_DRIVER", "sqlite3"),
		DBPath:               env.GetString("DB_PATH", ""),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Encryption
		EncryptionKey:       env.GetString("ENCRYPTION_KEY", ""),
		EncryptionAlgorithm: env.GetString("ENCRYPTION_ALGORITHM", "aes-gcm"),

		// KMS configuration
		KMSProvider: env.GetString("KMS_PROVIDER", ""),
		KMSKeyURI:   env.GetString("KMS_KEY_URI", ""),

		// Replication
		DispatcherWorkers:   env.GetInt("DISPATCHER_WORKERS", 4),
		PublisherGatewayURL: env.GetString("PUBLISHER_GATEWAY_URL", "http://127.0.0.1:5001"),
		PublisherTimeout:    env.GetDuration("PUBLISHER_TIMEOUT_SECONDS", 30, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "provenance"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate checks that required configuration is present before pipeline start.
// Failures are reported with ErrConfigKeyMissing naming the offending key so the
// process can fail fast instead of surfacing the problem mid-pipeline.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3":
		if c.DBPath == "" {
			return apperrors.Wrap(ErrConfigKeyMissing, "DB_PATH")
		}
	case "postgres", "mysql":
		if c.DBConnectionString == "" {
			return apperrors.Wrap(ErrConfigKeyMissing, "DB_CONNECTION_STRING")
		}
	default:
		return apperrors.Wrap(
			apperrors.ErrInvalidInput,
			fmt.Sprintf("unsupported database driver: %s", c.DBDriver),
		)
	}

	if c.EncryptionKey == "" {
		return apperrors.Wrap(ErrConfigKeyMissing, "ENCRYPTION_KEY")
	}

	if c.KMSProvider != "" && c.KMSKeyURI == "" {
		return apperrors.Wrap(ErrConfigKeyMissing, "KMS_KEY_URI")
	}

	if c.DispatcherWorkers < 1 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "DISPATCHER_WORKERS must be at least 1")
	}

	return nil
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
