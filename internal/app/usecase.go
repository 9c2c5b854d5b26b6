// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
//
// Every command runs as one unit of work: load aggregates through an
// appctx.RequestContext, call a single domain operation with the clock's
// "now", stage the resulting writes and events, commit, then publish. The
// services contain no business rules of their own.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	appctx "github.com/orgplan/orgplan/internal/app/context"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/logging"
	"github.com/orgplan/orgplan/internal/platform/telemetry"
	"github.com/orgplan/orgplan/internal/ports"
)

// Deps holds the collaborators shared by all application services.
// Nil Clock, Metrics and Logger fall back to the system clock, no-op
// instruments and a discarding logger.
type Deps struct {
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// runner executes use cases for one service.
type runner struct {
	publisher ports.EventPublisher
	clock     ports.Clock
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func newRunner(d Deps) runner {
	r := runner{publisher: d.Publisher, clock: d.Clock, metrics: d.Metrics, logger: d.Logger}
	if r.clock == nil {
		r.clock = ports.SystemClock{}
	}
	if r.metrics == nil {
		r.metrics = telemetry.NewNoopMetrics()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// log prefers the request-scoped logger so entries carry request_id.
func (r runner) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}

// operation describes one use case invocation for logs, spans and metrics.
type operation struct {
	name  string
	msg   string
	attrs []any
}

func op(name, msg string, attrs ...any) operation {
	return operation{name: name, msg: msg, attrs: attrs}
}

// command runs fn as a unit of work. Events recorded by fn are published
// only after every staged write has committed. A publishing failure is
// logged but not returned: the change itself is durable at that point.
func (r runner) command(ctx context.Context, o operation, fn func(rc *appctx.RequestContext, now time.Time) error) error {
	ctx, span := otel.Tracer(telemetry.ScopeName).Start(ctx, o.name)
	defer span.End()

	r.log(ctx).InfoContext(ctx, o.msg, o.attrs...)

	rc := appctx.New(ctx)
	err := fn(rc, r.clock.Now())

	var events []domain.Event
	if err == nil {
		events, err = rc.Commit(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.fail(ctx, o, err)
		return err
	}

	span.SetAttributes(attribute.Int("events", len(events)))
	r.count(ctx, o.name, telemetry.ResultSuccess)

	if len(events) > 0 && r.publisher != nil {
		if err := r.publisher.Publish(ctx, events); err != nil {
			r.log(ctx).ErrorContext(ctx, "failed to publish events",
				slog.String("operation", o.name),
				slog.Int("events", len(events)),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// query logs and traces a read.
func (r runner) query(ctx context.Context, o operation, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(telemetry.ScopeName).Start(ctx, o.name)
	defer span.End()

	r.log(ctx).InfoContext(ctx, o.msg, o.attrs...)

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.fail(ctx, o, err)
		return err
	}
	return nil
}

// fail logs a failed use case. Business-rule and input failures are expected
// outcomes and log at WARN; everything else is an ERROR.
func (r runner) fail(ctx context.Context, o operation, err error) {
	attrs := append([]any{slog.String("operation", o.name)}, o.attrs...)
	attrs = append(attrs, slog.Any("error", err))

	if rejected(err) {
		if rule := domain.RuleName(err); rule != "" {
			attrs = append(attrs, slog.String("rule", rule))
		}
		r.log(ctx).WarnContext(ctx, "use case rejected", attrs...)
		r.count(ctx, o.name, telemetry.ResultRejected)
		return
	}

	r.log(ctx).ErrorContext(ctx, "use case failed", attrs...)
	r.count(ctx, o.name, telemetry.ResultError)
}

func (r runner) count(ctx context.Context, name, result string) {
	r.metrics.OperationTotal.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrOperation.String(name),
		telemetry.AttrResult.String(result),
	))
}

// rejected reports whether err is a caller-facing refusal rather than a
// system failure.
func rejected(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvariant) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrNoChanges)
}

// stage queues the save of a changed aggregate together with its events. An
// operation that produced no events changed nothing and writes nothing.
func stage(rc *appctx.RequestContext, key string, aggregate any, save domain.Action, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := rc.Stage(key, aggregate, save); err != nil {
		return err
	}
	rc.Record(events...)
	return nil
}
