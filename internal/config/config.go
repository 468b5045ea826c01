// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all breadbox server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Persistence
	PersistType   string
	PersistConfig string
	DataDir       string
	FlushInterval time.Duration

	// Auth. An empty JWTSecret disables authentication.
	JWTSecret  string
	APIKeyHash string
	TokenTTL   time.Duration

	// Events. An empty NATSURL disables the relay.
	NATSURL           string
	NATSSubjectPrefix string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOr("BREADBOX_LISTEN_ADDR", ":8080"),
		MetricsAddr:       envOr("BREADBOX_METRICS_ADDR", ":9091"),
		LogLevel:          envOr("BREADBOX_LOG_LEVEL", "info"),
		LogFormat:         envOr("BREADBOX_LOG_FORMAT", "json"),
		PersistType:       envOr("BREADBOX_PERSIST_TYPE", "local"),
		PersistConfig:     envOr("BREADBOX_PERSIST_CONFIG", ""),
		DataDir:           envOr("BREADBOX_DATA_DIR", "/data/breadbox"),
		FlushInterval:     envDuration("BREADBOX_FLUSH_INTERVAL", time.Second),
		JWTSecret:         envOr("BREADBOX_JWT_SECRET", ""),
		APIKeyHash:        envOr("BREADBOX_API_KEY_HASH", ""),
		TokenTTL:          envDuration("BREADBOX_TOKEN_TTL", 720*time.Hour),
		NATSURL:           envOr("BREADBOX_NATS_URL", ""),
		NATSSubjectPrefix: envOr("BREADBOX_NATS_SUBJECT_PREFIX", "breadbox.events"),
	}

	if cfg.JWTSecret != "" && cfg.APIKeyHash == "" {
		return nil, fmt.Errorf("BREADBOX_API_KEY_HASH is required when BREADBOX_JWT_SECRET is set")
	}
	if cfg.FlushInterval < 0 {
		return nil, fmt.Errorf("BREADBOX_FLUSH_INTERVAL must not be negative")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
