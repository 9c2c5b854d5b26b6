// Package fanout runs a function across a slice of items with a bounded number
// of goroutines. The event publisher uses it to deliver one event to every
// subscriber concurrently.
package fanout

import (
	"context"
	"errors"
	"sync"
)

// Result holds the outcome of processing a single item.
// Either Value is populated (on success) or Err is non-nil (on failure).
type Result[R any] struct {
	Value R
	Err   error
}

// Run executes fn for each item using at most maxWorkers concurrent
// goroutines and returns results in input order. A maxWorkers below one is
// treated as one.
//
// If ctx is canceled while a goroutine waits for a worker slot, that item
// records ctx.Err() and fn is not called for it. Items that already hold a
// slot run to completion; fn is responsible for observing ctx.
//
// Run blocks until every item is done. Empty input yields an empty non-nil
// slice.
func Run[T, R any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if len(items) == 0 {
		return []Result[R]{}
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	results := make([]Result[R], len(items))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Result[R]{Err: ctx.Err()}
				return
			}

			val, err := fn(ctx, it)
			results[idx] = Result[R]{Value: val, Err: err}
		}(i, item)
	}

	wg.Wait()
	return results
}

// Each is Run for functions without a result value. It returns every item
// error joined in input order, or nil when all items succeed.
func Each[T any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) error) error {
	results := Run(ctx, maxWorkers, items, func(ctx context.Context, it T) (struct{}, error) {
		return struct{}{}, fn(ctx, it)
	})

	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
