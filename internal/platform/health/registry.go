// Package health provides a thread-safe health check registry. The readiness
// endpoint uses it to decide whether the service can accept work: the
// repositories and the event publisher register themselves at startup.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/orgplan/orgplan/internal/ports"
)

// Compile-time interface check.
var _ ports.HealthRegistry = (*Registry)(nil)

// Registry is a thread-safe implementation of [ports.HealthRegistry].
type Registry struct {
	mu       sync.RWMutex
	checkers []ports.HealthChecker
	timeout  time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithCheckTimeout bounds each individual health check. Zero disables the
// bound and checks only observe the caller's context.
func WithCheckTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

// New creates an empty health check registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a health checker to the registry. Safe for concurrent use.
func (r *Registry) Register(checker ports.HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, checker)
}

// CheckAll executes all registered health checks in registration order and
// returns results keyed by checker name. Nil values indicate healthy
// components; a later checker with a duplicate name overwrites the earlier
// result. The slice is copied under a read lock so checks run without
// holding the lock.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := make([]ports.HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make(map[string]error, len(checkers))
	for _, c := range checkers {
		results[c.Name()] = r.check(ctx, c)
	}
	return results
}

func (r *Registry) check(ctx context.Context, c ports.HealthChecker) error {
	if r.timeout <= 0 {
		return c.HealthCheck(ctx)
	}
	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return c.HealthCheck(checkCtx)
}
