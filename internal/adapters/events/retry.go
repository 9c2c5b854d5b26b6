package events

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/logging"
	"github.com/orgplan/orgplan/internal/ports"
)

// jitterFraction is the maximum jitter as a fraction of the delay (±25%).
const jitterFraction = 0.25

// retryConfig holds the retry policy copied out of config.RetryConfig.
type retryConfig struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// handleWithRetry calls the subscriber until it succeeds, the attempts run
// out or ctx is done. Every attempt gets its own handler timeout.
func (p *Publisher) handleWithRetry(ctx context.Context, sub ports.EventSubscriber, e domain.Event) error {
	if p.retryCfg.maxAttempts <= 0 {
		return fmt.Errorf("events: maxAttempts must be >= 1, got %d", p.retryCfg.maxAttempts)
	}

	var lastErr error

	for attempt := range p.retryCfg.maxAttempts {
		if attempt > 0 {
			if err := p.waitForRetry(ctx, sub, e, attempt, lastErr); err != nil {
				return err
			}
		}

		lastErr = p.handleOnce(ctx, sub, e)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(ctx, lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (p *Publisher) handleOnce(ctx context.Context, sub ports.EventSubscriber, e domain.Event) error {
	if p.cfg.HandlerTimeout <= 0 {
		return sub.Handle(ctx, e)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.HandlerTimeout)
	defer cancel()
	return sub.Handle(attemptCtx, e)
}

// waitForRetry logs the retry at WARN level and waits for the backoff delay.
func (p *Publisher) waitForRetry(ctx context.Context, sub ports.EventSubscriber, e domain.Event, attempt int, lastErr error) error {
	delay := backoff(attempt, p.retryCfg)

	logging.FromContextOr(ctx, p.logger).WarnContext(ctx, "retrying event delivery",
		slog.String("subscriber", sub.Name()),
		slog.String("event_type", e.Type.String()),
		slog.Int("attempt", attempt+1),
		slog.Int("max_attempts", p.retryCfg.maxAttempts),
		slog.Duration("backoff", delay),
		slog.Any("error", lastErr),
	)

	return sleep(ctx, delay)
}

// backoff calculates the delay for a given retry attempt using exponential
// backoff with ±25% jitter. The attempt parameter is 1-indexed (attempt 1 is
// the first retry).
func backoff(attempt int, cfg retryConfig) time.Duration {
	delay := float64(cfg.initialInterval) * math.Pow(cfg.multiplier, float64(attempt-1))

	if delay > float64(cfg.maxInterval) {
		delay = float64(cfg.maxInterval)
	}

	jitter := delay * jitterFraction
	delay += jitter * (2*secureRandFloat64() - 1)

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// IEEE 754 double-precision constants for random float generation.
const (
	significandBits = 53
	uint64Bits      = 64
)

// secureRandFloat64 returns a random float64 in [0, 1) using crypto/rand.
func secureRandFloat64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>(uint64Bits-significandBits)) / float64(uint64(1)<<significandBits)
}

// isRetryable reports whether a failed attempt should be repeated. A done
// parent context and business-rule failures are final; a single attempt
// running into its own handler timeout is not.
func isRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if domain.RuleName(err) != "" || errors.Is(err, domain.ErrValidation) {
		return false
	}
	return true
}
