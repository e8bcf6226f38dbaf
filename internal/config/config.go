// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

// Config holds all configuration values for the catalog server.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level: debug, info, warn or error.
	LogLevel string

	// Mode selects cached or direct reads (CATALOG_MODE). Defaults to cached.
	Mode travel.Mode

	// Match selects prefix or substring country search (CATALOG_MATCH). Defaults to prefix.
	Match travel.MatchMode

	// RedisURL enables idempotent travel creation when set.
	RedisURL string

	// RedisTimeout bounds every Redis call. Defaults to 500ms.
	RedisTimeout time.Duration

	// IdempotencyTTL is how long an Idempotency-Key is remembered. Defaults to 24h.
	IdempotencyTTL time.Duration

	// RateLimit is the per-IP request budget per minute. Defaults to 60.
	RateLimit int

	// CORSOrigins lists allowed cross-origin request origins.
	CORSOrigins []string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error naming every required variable that is missing and every
// value that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var err error
	if cfg.Mode, err = travel.ParseMode(getEnv("CATALOG_MODE", "cached")); err != nil {
		invalid = append(invalid, "CATALOG_MODE: "+err.Error())
	}
	if cfg.Match, err = travel.ParseMatchMode(getEnv("CATALOG_MATCH", "prefix")); err != nil {
		invalid = append(invalid, "CATALOG_MATCH: "+err.Error())
	}
	if cfg.RedisTimeout, err = time.ParseDuration(getEnv("REDIS_TIMEOUT", "500ms")); err != nil {
		invalid = append(invalid, "REDIS_TIMEOUT: "+err.Error())
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h")); err != nil {
		invalid = append(invalid, "IDEMPOTENCY_TTL: "+err.Error())
	}
	if cfg.RateLimit, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60")); err != nil || cfg.RateLimit < 1 {
		invalid = append(invalid, "RATE_LIMIT_PER_MINUTE: must be a positive integer")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
