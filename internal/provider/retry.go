package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

// RetryPolicy retries transient provider failures with capped exponential
// backoff plus jitter. Rate-limited calls wait the provider's advertised
// retry-after instead, capped at MaxRetryAfter. Non-transient failures
// propagate immediately.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterBound   time.Duration
	MaxRetryAfter time.Duration

	Logger *zap.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy(cfg config.RetryConfig, logger *zap.Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		MaxDelay:      cfg.MaxDelay,
		JitterBound:   cfg.JitterBound,
		MaxRetryAfter: cfg.MaxRetryAfter,
		Logger:        logger,
	}
}

// Do runs fn under the policy. fn errors must be *Error (or wrap one) for
// classification; anything else is treated as non-retryable.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var pe *Error
		if !errors.As(lastErr, &pe) || !pe.Kind.Transient() {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := p.backoff(attempt, pe)
		if p.Logger != nil {
			p.Logger.Debug("provider call retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.String("kind", pe.Kind.String()),
				zap.Duration("delay", delay),
			)
		}
		if err := p.wait(ctx, delay); err != nil {
			return err
		}
	}

	if p.Logger != nil {
		p.Logger.Warn("provider call exhausted retries",
			zap.String("op", op),
			zap.Int("attempts", attempts),
			zap.Error(lastErr),
		)
	}
	return lastErr
}

func (p *RetryPolicy) backoff(attempt int, pe *Error) time.Duration {
	if pe.Kind == KindRateLimit && pe.RetryAfter > 0 {
		after := pe.RetryAfter
		if p.MaxRetryAfter > 0 && after > p.MaxRetryAfter {
			after = p.MaxRetryAfter
		}
		return after
	}

	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterBound > 0 {
		delay += time.Duration(rand.Int63n(int64(p.JitterBound)))
	}
	return delay
}

func (p *RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
