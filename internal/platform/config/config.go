// Package config provides configuration loading and validation for the service.
// Configuration is loaded from built-in defaults, YAML files and environment
// variable overrides: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Events    EventsConfig    `koanf:"events"`
	Planning  PlanningConfig  `koanf:"planning"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown when the caller's context has
	// no deadline.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// HealthCheckTimeout bounds each readiness check. Zero leaves checks
	// bounded only by the request.
	HealthCheckTimeout time.Duration `koanf:"health_check_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EventsConfig holds domain event publisher settings.
type EventsConfig struct {
	// MaxWorkers bounds how many subscribers handle one event concurrently.
	MaxWorkers     int                  `koanf:"max_workers"`
	HandlerTimeout time.Duration        `koanf:"handler_timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
}

// RetryConfig holds the per-subscriber retry policy. MaxAttempts counts the
// first delivery.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// RateLimitConfig caps how fast a single subscriber receives events.
// A zero EventsPerSecond disables limiting.
type RateLimitConfig struct {
	EventsPerSecond float64 `koanf:"events_per_second"`
	BurstSize       int     `koanf:"burst_size"`
}

// CircuitBreakerConfig holds per-subscriber circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// PlanningConfig holds defaults and limits applied by the application
// services.
type PlanningConfig struct {
	MaxTaskDepth        int    `koanf:"max_task_depth"`
	DefaultMethodology  string `koanf:"default_methodology"`
	DefaultSizingMethod string `koanf:"default_sizing_method"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
