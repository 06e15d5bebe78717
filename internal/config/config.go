// Package config loads server settings from the environment.
//
// Every value has a default so the server starts with no environment at all;
// sign-in routes are only mounted when their secrets are present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                int           // HTTP port (default: 8080)
	DBPath              string        // SQLite file (default: data/cofounder.db)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 30s)
	WriteTimeout        time.Duration // HTTP write timeout, must exceed a full link recheck (default: 60s)

	LogLevel  string // debug, info, warn, error (default: info)
	LogFormat string // json, text (default: text)

	JWTSecret          string // Session signing key; empty disables cookie sessions and GitHub sign-in
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	OIDCIssuerURL string // External identity provider; empty disables bearer tokens
	OIDCAudience  string

	LinkCheckTimeout   time.Duration // Per-URL probe budget (default: 4s)
	LinkCheckUserAgent string

	RecheckPerMinute int // Link recheck requests allowed per identity per minute (default: 6)
	RecheckBurst     int // (default: 3)
}

// Load reads the environment. Unparseable numbers and durations fall back
// to their defaults.
func Load() Config {
	cfg := Config{
		Port:                getEnvIntOrDefault("PORT", 8080),
		DBPath:              getEnvOrDefault("DB_PATH", "data/cofounder.db"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		WriteTimeout:        getEnvDurationOrDefault("HTTP_WRITE_TIMEOUT", 60*time.Second),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),

		OIDCIssuerURL: os.Getenv("OIDC_ISSUER_URL"),
		OIDCAudience:  os.Getenv("OIDC_AUDIENCE"),

		LinkCheckTimeout:   getEnvDurationOrDefault("LINKCHECK_TIMEOUT", 4*time.Second),
		LinkCheckUserAgent: getEnvOrDefault("LINKCHECK_USER_AGENT", "cofounder-match-linkcheck/1.0"),

		RecheckPerMinute: getEnvIntOrDefault("RECHECK_RATE_PER_MINUTE", 6),
		RecheckBurst:     getEnvIntOrDefault("RECHECK_BURST", 3),
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: DB_PATH is empty"))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("config: JWT_SECRET must be at least 16 characters"))
	}
	if c.OIDCIssuerURL != "" && c.OIDCAudience == "" {
		errs = append(errs, errors.New("config: OIDC_AUDIENCE is required with OIDC_ISSUER_URL"))
	}
	if c.LinkCheckTimeout <= 0 {
		errs = append(errs, errors.New("config: LINKCHECK_TIMEOUT must be positive"))
	}
	if c.RecheckPerMinute <= 0 || c.RecheckBurst <= 0 {
		errs = append(errs, errors.New("config: recheck rate limit must be positive"))
	}
	return errors.Join(errs...)
}

// GitHubEnabled reports whether GitHub sign-in can be offered.
func (c Config) GitHubEnabled() bool {
	return c.JWTSecret != "" && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
