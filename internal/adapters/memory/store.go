// Package memory implements the repository ports with mutex-guarded maps of
// aggregate snapshots. Aggregates are rehydrated on every read, so callers
// never share state with the store, and every save is checked against the
// version the aggregate was loaded at.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// record is one stored snapshot and its version.
type record[S any] struct {
	snapshot S
	version  int64
}

// store holds the snapshots of one aggregate kind.
type store[S any] struct {
	kind    string
	closed  *atomic.Bool
	mu      sync.RWMutex
	records map[uuid.UUID]record[S]
}

func newStore[S any](kind string, closed *atomic.Bool) *store[S] {
	return &store[S]{kind: kind, closed: closed, records: make(map[uuid.UUID]record[S])}
}

func (s *store[S]) get(ctx context.Context, id uuid.UUID) (record[S], error) {
	if err := s.ready(ctx); err != nil {
		return record[S]{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return record[S]{}, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrNotFound)
	}
	return r, nil
}

// all returns every record matching keep. Order is unspecified.
func (s *store[S]) all(ctx context.Context, keep func(S) bool) ([]record[S], error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record[S]
	for _, r := range s.records {
		if keep(r.snapshot) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *store[S]) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("memory store closed: %w", domain.ErrUnavailable)
	}
	return nil
}

// saveAction writes one snapshot when executed. The snapshot is taken at
// Execute time so that every mutation staged in the unit of work is included.
type saveAction[S any] struct {
	store    *store[S]
	id       uuid.UUID
	expected int64
	snapshot func() S

	prev    record[S]
	existed bool
}

func (s *store[S]) save(id uuid.UUID, expected int64, snapshot func() S) domain.Action {
	return &saveAction[S]{store: s, id: id, expected: expected, snapshot: snapshot}
}

func (a *saveAction[S]) Execute(ctx context.Context) error {
	if err := a.store.ready(ctx); err != nil {
		return err
	}
	snap := a.snapshot()

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	current, ok := a.store.records[a.id]
	if current.version != a.expected {
		return fmt.Errorf("%s %s: stored version %d, loaded version %d: %w",
			a.store.kind, a.id, current.version, a.expected, domain.ErrConflict)
	}
	a.prev, a.existed = current, ok
	a.store.records[a.id] = record[S]{snapshot: snap, version: a.expected + 1}
	return nil
}

func (a *saveAction[S]) Rollback(_ context.Context) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	current, ok := a.store.records[a.id]
	if !ok || current.version != a.expected+1 {
		return fmt.Errorf("%s %s changed after save: %w", a.store.kind, a.id, domain.ErrConflict)
	}
	if a.existed {
		a.store.records[a.id] = a.prev
	} else {
		delete(a.store.records, a.id)
	}
	return nil
}

func (a *saveAction[S]) Description() string {
	return fmt.Sprintf("save %s %s (version %d)", a.store.kind, a.id, a.expected)
}

// sequence allocates increasing positive keys.
type sequence struct {
	last atomic.Int64
}

func (s *sequence) next() int {
	return int(s.last.Add(1))
}
