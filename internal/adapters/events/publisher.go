// Package events delivers committed domain events to in-process subscribers.
//
// Each subscriber gets its own delivery pipeline, applied in this order:
//
//	Circuit Breaker → Rate Limiter → OTEL Span → Retry → Handle
//
// One event is delivered to all subscribers concurrently (bounded by
// events.max_workers); events of one Publish call are delivered in order.
//
// Construction:
//
//	pub := events.New(cfg.Events, metrics, logger)
//	pub.Subscribe(events.NewJournal(0))
//
// Publishing after a unit of work commits:
//
//	committed, err := rc.Commit(ctx)
//	err = pub.Publish(ctx, committed)
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/orgplan/orgplan/internal/app/fanout"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/config"
	"github.com/orgplan/orgplan/internal/platform/logging"
	"github.com/orgplan/orgplan/internal/platform/telemetry"
	"github.com/orgplan/orgplan/internal/ports"
)

// name is the health check identifier of the publisher.
const name = "events"

// subscription is one subscriber with its own breaker and limiter.
type subscription struct {
	sub     ports.EventSubscriber
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter // nil when rate limiting is disabled
}

// Publisher fans committed domain events out to subscribers.
type Publisher struct {
	cfg      config.EventsConfig
	retryCfg retryConfig
	metrics  *telemetry.Metrics
	logger   *slog.Logger

	mu   sync.RWMutex
	subs []*subscription
}

var (
	_ ports.EventPublisher = (*Publisher)(nil)
	_ ports.HealthChecker  = (*Publisher)(nil)
)

// New creates a publisher without subscribers. If metrics is nil, metric
// recording is skipped.
func New(cfg config.EventsConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		cfg: cfg,
		retryCfg: retryConfig{
			maxAttempts:     cfg.Retry.MaxAttempts,
			initialInterval: cfg.Retry.InitialInterval,
			maxInterval:     cfg.Retry.MaxInterval,
			multiplier:      cfg.Retry.Multiplier,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Subscribe registers a subscriber. Subscribers added while a Publish call is
// in flight receive only later events.
func (p *Publisher) Subscribe(sub ports.EventSubscriber) {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        sub.Name(),
		MaxRequests: toUint32(p.cfg.CircuitBreaker.HalfOpenLimit),
		Timeout:     p.cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= p.cfg.CircuitBreaker.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("subscriber circuit breaker state change",
				slog.String("subscriber", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	var limiter *rate.Limiter
	if p.cfg.RateLimit.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.RateLimit.EventsPerSecond), p.cfg.RateLimit.BurstSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, &subscription{sub: sub, breaker: cb, limiter: limiter})
}

// Publish delivers events in order. A failing subscriber does not stop
// delivery to the others or of later events; all failures are returned
// joined.
func (p *Publisher) Publish(ctx context.Context, events []domain.Event) error {
	p.mu.RLock()
	subs := make([]*subscription, len(p.subs))
	copy(subs, p.subs)
	p.mu.RUnlock()

	logger := logging.FromContextOr(ctx, p.logger)

	var errs []error
	for _, e := range events {
		logger.InfoContext(ctx, "domain event",
			slog.String("event_type", e.Type.String()),
			slog.String("aggregate_id", e.AggregateID.String()),
			slog.String("subject_id", e.SubjectID.String()),
			slog.Time("occurred_at", e.OccurredAt),
			dataGroup(e.Data),
		)

		if p.metrics != nil {
			p.metrics.EventsPublishedTotal.Add(ctx, 1,
				metric.WithAttributes(telemetry.AttrEventType.String(e.Type.String())))
		}

		if err := fanout.Each(ctx, p.cfg.MaxWorkers, subs, func(ctx context.Context, s *subscription) error {
			return p.deliver(ctx, s, e)
		}); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// deliver runs one event through the subscriber's pipeline.
func (p *Publisher) deliver(ctx context.Context, s *subscription, e domain.Event) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return struct{}{}, err
			}
		}

		spanCtx, span := startSpan(ctx, s.sub.Name(), e)
		defer span.End()

		err := p.handleWithRetry(spanCtx, s.sub, e)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return struct{}{}, err
	})

	p.recordDelivery(ctx, s.sub.Name(), e, err)

	if err != nil {
		logging.FromContextOr(ctx, p.logger).ErrorContext(ctx, "event delivery failed",
			slog.String("subscriber", s.sub.Name()),
			slog.String("event_type", e.Type.String()),
			slog.String("aggregate_id", e.AggregateID.String()),
			slog.Any("error", err),
		)
		return fmt.Errorf("delivering %s to %s: %w", e.Type, s.sub.Name(), err)
	}
	return nil
}

func startSpan(ctx context.Context, subscriber string, e domain.Event) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(telemetry.ScopeName)
	return tracer.Start(ctx, "event "+e.Type.String(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.type", e.Type.String()),
			attribute.String("event.aggregate_id", e.AggregateID.String()),
			attribute.String("subscriber", subscriber),
		),
	)
}

// recordDelivery counts one delivery outcome. Safe to call with nil metrics.
func (p *Publisher) recordDelivery(ctx context.Context, subscriber string, e domain.Event, err error) {
	if p.metrics == nil {
		return
	}

	result := telemetry.ResultSuccess
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = telemetry.ResultCircuitOpen
	case err != nil:
		result = telemetry.ResultError
	}

	p.metrics.EventDeliveriesTotal.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrEventType.String(e.Type.String()),
		telemetry.AttrSubscriber.String(subscriber),
		telemetry.AttrResult.String(result),
	))
}

// Name implements ports.HealthChecker.
func (p *Publisher) Name() string {
	return name
}

// HealthCheck reports subscribers whose circuit breaker is not closed. No
// event is sent.
func (p *Publisher) HealthCheck(_ context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var errs []error
	for _, s := range p.subs {
		switch state := s.breaker.State(); state {
		case gobreaker.StateClosed:
		case gobreaker.StateHalfOpen:
			errs = append(errs, fmt.Errorf("%s: degraded (circuit breaker half-open)", s.sub.Name()))
		case gobreaker.StateOpen:
			errs = append(errs, fmt.Errorf("%s: failing (circuit breaker open): %w", s.sub.Name(), domain.ErrUnavailable))
		default:
			errs = append(errs, fmt.Errorf("%s: unknown circuit breaker state %v", s.sub.Name(), state))
		}
	}
	return errors.Join(errs...)
}

// dataGroup renders event data as a sorted log group so field-name redaction
// applies to individual keys.
func dataGroup(data map[string]string) slog.Attr {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, data[k]))
	}
	return slog.Group("data", attrs...)
}

// toUint32 clamps v to the uint32 range. Negative values become zero.
func toUint32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
