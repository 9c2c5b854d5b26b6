package ports

import "context"

// HealthChecker reports whether a dependency of the planning service can
// serve work. The memory store reports "memory" and the event publisher
// reports "events" and fails while a subscriber circuit breaker is not
// closed.
type HealthChecker interface {
	Name() string
	// HealthCheck returns nil when healthy. It must honour ctx deadlines.
	HealthCheck(ctx context.Context) error
}

// HealthRegistry collects checkers for the readiness probe.
type HealthRegistry interface {
	Register(checker HealthChecker)
	// CheckAll runs every checker and keys the outcome by checker name;
	// a nil value means healthy.
	CheckAll(ctx context.Context) map[string]error
}
