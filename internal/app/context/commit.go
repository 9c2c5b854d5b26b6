package appctx

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/logging"
)

// Commit executes all staged actions in insertion order. If one fails, the
// actions that already succeeded are rolled back in reverse order and the
// recorded events are discarded. Rollback errors are logged but do not affect
// the returned error.
//
// On success Commit returns the recorded events, in recording order, for the
// caller to publish. The RequestContext is marked committed either way.
func (rc *RequestContext) Commit(ctx context.Context) ([]domain.Event, error) {
	rc.mu.Lock()
	if rc.committed {
		rc.mu.Unlock()
		return nil, ErrAlreadyCommitted
	}
	rc.committed = true
	// Once committed is set nothing can append, so the snapshots below may
	// be used without the lock.
	actions := rc.actions
	events := slices.Clone(rc.events)
	rc.mu.Unlock()

	logger := logging.FromContext(ctx)

	for i, action := range actions {
		logger.DebugContext(ctx, "executing action",
			slog.String("operation", "RequestContext.Commit"),
			slog.Int("step", i+1),
			slog.Int("total", len(actions)),
			slog.String("action", action.Description()),
		)

		if err := action.Execute(ctx); err != nil {
			logger.ErrorContext(ctx, "action failed, initiating rollback",
				slog.String("operation", "RequestContext.Commit"),
				slog.Int("failed_step", i+1),
				slog.String("action", action.Description()),
				slog.Any("error", err),
			)
			rollback(ctx, actions[:i], logger)
			return nil, fmt.Errorf("executing %s: %w", action.Description(), err)
		}
	}

	return events, nil
}

// rollback undoes done in reverse order. Rollback errors are logged and do
// not stop the remaining rollbacks.
func rollback(ctx context.Context, done []domain.Action, logger *slog.Logger) {
	for i := len(done) - 1; i >= 0; i-- {
		action := done[i]

		logger.InfoContext(ctx, "rolling back action",
			slog.String("operation", "RequestContext.Commit"),
			slog.Int("step", i+1),
			slog.String("action", action.Description()),
		)

		if err := action.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "rollback failed",
				slog.String("operation", "RequestContext.Commit"),
				slog.Int("step", i+1),
				slog.String("action", action.Description()),
				slog.Any("error", err),
			)
		}
	}
}
