// Package appctx provides the unit of work used by application services.
//
// A RequestContext is created per use case. It memoizes aggregate loads,
// collects one staged write per changed aggregate together with the domain
// events the change produced, and releases those events only after every
// staged write has been committed:
//
//	rc := appctx.New(ctx)
//
//	// Load aggregates with memoization.
//	team, err := appctx.GetOrFetch(rc, "team:"+id.String(), fetchTeam)
//
//	// Mutate, then stage the save and record the events.
//	events, err := team.Deactivate(now)
//	rc.Stage("team:"+id.String(), team, repo.SaveMember(team))
//	rc.Record(events...)
//
//	// Execute all staged writes; events come back only on success.
//	published, err := rc.Commit(ctx)
package appctx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/orgplan/orgplan/internal/domain"
)

// Compile-time check that RequestContext implements domain.WriteStager.
var _ domain.WriteStager = (*RequestContext)(nil)

// ErrAlreadyCommitted is returned when Stage or Commit is called on a
// RequestContext that has already been committed.
var ErrAlreadyCommitted = errors.New("appctx: request context already committed")

// ErrNilAction is returned when a nil Action is passed to Stage.
var ErrNilAction = errors.New("appctx: nil action")

// ErrTypeMismatch is returned by GetOrFetch when a cached value's type does
// not match the requested type T. This indicates a programming error where
// the same cache key is used with different types.
var ErrTypeMismatch = errors.New("appctx: cached value type mismatch")

// RequestContext is a unit-of-work wrapper around context.Context. It embeds
// the parent context, memoizes loads via GetOrFetch, and queues writes and
// events until Commit.
//
// Stage, Record and Commit are safe for concurrent use. GetOrFetch is meant
// for sequential orchestration inside one use case.
type RequestContext struct {
	context.Context

	mu        sync.Mutex
	cache     map[string]cacheEntry
	actions   []domain.Action
	events    []domain.Event
	committed bool
}

// cacheEntry stores the result of a GetOrFetch call, including any error.
type cacheEntry struct {
	value any
	err   error
}

// New creates a RequestContext wrapping the given context.Context.
func New(ctx context.Context) *RequestContext {
	return &RequestContext{
		Context: ctx,
		cache:   make(map[string]cacheEntry),
	}
}

type ctxKey struct{}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return rc, ok
}

// GetOrFetch returns a cached value for the given key, or calls fetchFn to
// fetch and cache it. Both successful results and errors are cached so that a
// use case never loads the same aggregate twice.
//
// The same key must always be used with the same type T. If a cached value
// exists but its type does not match T, GetOrFetch returns ErrTypeMismatch.
func GetOrFetch[T any](rc *RequestContext, key string, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	rc.mu.Lock()
	entry, ok := rc.cache[key]
	rc.mu.Unlock()

	if ok {
		if entry.err != nil {
			var zero T
			return zero, entry.err
		}
		v, ok := entry.value.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("%w: key %q holds %T, requested %T", ErrTypeMismatch, key, entry.value, zero)
		}
		return v, nil
	}

	val, err := fetchFn(rc.Context)

	rc.mu.Lock()
	rc.cache[key] = cacheEntry{value: val, err: err}
	rc.mu.Unlock()
	return val, err
}

// Stage replaces the cached value for key with aggregate and queues action
// for execution during Commit. Later GetOrFetch calls for the same key see
// the staged aggregate (read-your-writes).
func (rc *RequestContext) Stage(key string, aggregate any, action domain.Action) error {
	if action == nil {
		return ErrNilAction
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.committed {
		return ErrAlreadyCommitted
	}
	rc.cache[key] = cacheEntry{value: aggregate}
	rc.actions = append(rc.actions, action)
	return nil
}

// Record appends events to be released by a successful Commit. Events
// recorded after Commit are dropped.
func (rc *RequestContext) Record(events ...domain.Event) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.committed {
		return
	}
	rc.events = append(rc.events, events...)
}

// Pending returns the number of staged actions.
func (rc *RequestContext) Pending() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.actions)
}
