/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string

	// Engine tuning
	MissingFeaturePenalty float64
	MaxSequenceLength     int // Upper bound on requested generation length

	// Redis cache configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS event bridge configuration
	NATSURL     string
	NATSEnabled bool

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("CADENCE_ENV", "development"),
		HTTPBind:      getEnv("CADENCE_HTTP_BIND", "0.0.0.0"),
		HTTPPort:      getEnvInt("CADENCE_HTTP_PORT", 8080),
		DBBackend:     DatabaseBackend(getEnv("CADENCE_DB_BACKEND", string(DatabasePostgres))),
		DBDSN:         getEnv("CADENCE_DB_DSN", ""),
		JWTSigningKey: getEnv("CADENCE_JWT_SIGNING_KEY", ""),
		MetricsBind:   getEnv("CADENCE_METRICS_BIND", "127.0.0.1:9000"),

		MissingFeaturePenalty: getEnvFloat("CADENCE_MISSING_FEATURE_PENALTY", 0),
		MaxSequenceLength:     getEnvInt("CADENCE_MAX_SEQUENCE_LENGTH", 5000),

		RedisAddr:     getEnv("CADENCE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("CADENCE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("CADENCE_REDIS_DB", 0),

		NATSURL:     getEnv("CADENCE_NATS_URL", "nats://localhost:4222"),
		NATSEnabled: getEnvBool("CADENCE_NATS_ENABLED", false),

		TracingEnabled:    getEnvBool("CADENCE_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("CADENCE_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("CADENCE_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("CADENCE_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("CADENCE_JWT_SIGNING_KEY must be provided")
	}

	if strings.EqualFold(cfg.Environment, "production") && strings.EqualFold(cfg.JWTSigningKey, "changeme") {
		return nil, fmt.Errorf("CADENCE_JWT_SIGNING_KEY must be set to a non-default value in production")
	}

	if cfg.MissingFeaturePenalty < 0 {
		return nil, fmt.Errorf("CADENCE_MISSING_FEATURE_PENALTY must not be negative")
	}

	if cfg.MaxSequenceLength <= 0 {
		return nil, fmt.Errorf("CADENCE_MAX_SEQUENCE_LENGTH must be positive")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
