package config

import (
	"log/slog"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: Remote API endpoint and error payload handling
//   - session.go: Token storage and session refresh configuration
//   - database.go: Redis configuration for the shared token store
//   - observability.go: Metrics and notice fan-out
type AppConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Remote API configuration
	API APIConfig

	// Session and token storage configuration
	Session SessionConfig

	// Redis configuration (used when SESSION_STORE=redis)
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.API.Sanitize()
	c.Session.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
