package config

import (
	"errors"
	"fmt"

	"github.com/orgplan/orgplan/internal/domain/organization"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Telemetry.validate(),
		c.Events.validate(),
		c.Planning.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	if s.HealthCheckTimeout < 0 {
		errs = append(errs, errors.New("server.health_check_timeout must not be negative"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (e *EventsConfig) validate() error {
	var errs []error

	if e.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("events.max_workers must be >= 1, got %d", e.MaxWorkers))
	}
	if e.HandlerTimeout <= 0 {
		errs = append(errs, errors.New("events.handler_timeout must be positive"))
	}
	if e.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("events.retry.max_attempts must be >= 1, got %d", e.Retry.MaxAttempts))
	}
	if e.Retry.MaxAttempts > 1 {
		if e.Retry.InitialInterval <= 0 {
			errs = append(errs, errors.New("events.retry.initial_interval must be positive"))
		}
		if e.Retry.MaxInterval < e.Retry.InitialInterval {
			errs = append(errs, errors.New("events.retry.max_interval must be >= initial_interval"))
		}
		if e.Retry.Multiplier < 1 {
			errs = append(errs, fmt.Errorf("events.retry.multiplier must be >= 1, got %g", e.Retry.Multiplier))
		}
	}
	if e.RateLimit.EventsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("events.rate_limit.events_per_second must be >= 0, got %g",
			e.RateLimit.EventsPerSecond))
	}
	if e.RateLimit.EventsPerSecond > 0 && e.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("events.rate_limit.burst_size must be >= 1 when limiting, got %d",
			e.RateLimit.BurstSize))
	}
	if e.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("events.circuit_breaker.max_failures must be >= 1, got %d",
			e.CircuitBreaker.MaxFailures))
	}
	if e.CircuitBreaker.Timeout <= 0 {
		errs = append(errs, errors.New("events.circuit_breaker.timeout must be positive"))
	}
	if e.CircuitBreaker.HalfOpenLimit < 1 {
		errs = append(errs, fmt.Errorf("events.circuit_breaker.half_open_limit must be >= 1, got %d",
			e.CircuitBreaker.HalfOpenLimit))
	}

	return errors.Join(errs...)
}

func (p *PlanningConfig) validate() error {
	var errs []error

	if p.MaxTaskDepth < 0 {
		errs = append(errs, fmt.Errorf("planning.max_task_depth must be >= 0, got %d", p.MaxTaskDepth))
	}
	if !organization.Methodology(p.DefaultMethodology).IsValid() {
		errs = append(errs, fmt.Errorf("planning.default_methodology must be one of: scrum, kanban; got %q",
			p.DefaultMethodology))
	}
	if !organization.SizingMethod(p.DefaultSizingMethod).IsValid() {
		errs = append(errs, fmt.Errorf("planning.default_sizing_method must be one of: story_points, count; got %q",
			p.DefaultSizingMethod))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}
