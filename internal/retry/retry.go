// Package retry applies a bounded exponential-backoff policy to idempotent
// backend calls. Only failures that may clear up on their own (unreachable
// service, timeout) are retried.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"go.uber.org/zap"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts     int // total attempts including the first; <= 1 disables retrying
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Logger          *zap.Logger
}

// DefaultPolicy returns 3 attempts starting at 200ms, capped at 2s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// FromConfig builds a Policy from the retry config section.
func FromConfig(cfg config.RetryConfig, logger *zap.Logger) Policy {
	return Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Logger:          logger,
	}
}

// Once is a Policy that never retries.
var Once = Policy{MaxAttempts: 1}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	switch client.KindOf(err) {
	case client.KindUnreachable, client.KindTimeout:
		return true
	}
	return false
}

// Do runs fn under the policy.
func Do(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value runs fn under the policy and returns its result. The error returned
// is always the last one fn produced, so callers can classify it.
func Value[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	logger := logging.OrNop(p.Logger)
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		if !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Stringer("kind", client.KindOf(err)),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	if err == nil {
		return v, nil
	}
	// Retry reports context cancellation and permanent wrappers in place of
	// the operation's own error.
	if last != nil {
		if attempt > 1 {
			logger.Warn("giving up",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(last))
		}
		return v, last
	}
	return v, err
}
