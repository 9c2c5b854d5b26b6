package config

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

const (
	defaultServerPort = 8080

	defaultEventsMaxWorkers          = 4
	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1
	defaultRetryMaxAttempts          = 3
	defaultRetryMultiplier           = 2.0

	defaultMaxTaskDepth = 10
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":                 "0.0.0.0",
		"server.port":                 defaultServerPort,
		"server.read_timeout":         "5s",
		"server.write_timeout":        "10s",
		"server.idle_timeout":         "120s",
		"server.shutdown_timeout":     "10s",
		"server.health_check_timeout": "2s",

		"log.level":  "info",
		"log.format": "json",

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "orgplan",

		"events.max_workers":                     defaultEventsMaxWorkers,
		"events.handler_timeout":                 "5s",
		"events.retry.max_attempts":              defaultRetryMaxAttempts,
		"events.retry.initial_interval":          "100ms",
		"events.retry.max_interval":              "2s",
		"events.retry.multiplier":                defaultRetryMultiplier,
		"events.rate_limit.events_per_second":    0,
		"events.rate_limit.burst_size":           0,
		"events.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"events.circuit_breaker.timeout":         "30s",
		"events.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"planning.max_task_depth":        defaultMaxTaskDepth,
		"planning.default_methodology":   "scrum",
		"planning.default_sizing_method": "story_points",
	}
}

// defaultsProvider exposes defaults() as a koanf.Provider.
type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: defaults provider does not support ReadBytes")
}

func (defaultsProvider) Read() (map[string]any, error) {
	return maps.Unflatten(defaults(), "."), nil
}
