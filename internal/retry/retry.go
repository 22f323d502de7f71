package retry

import (
	"context"
	"log"
	"time"

	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/metrics"
	"github.com/cenkalti/backoff/v4"
)

// Policy describes how a stage retries a failing call.
type Policy struct {
	Name        string        // used in logs and metrics, e.g. "search", "synthesis"
	MaxAttempts int           // total attempts including the first one
	Base        time.Duration // delay before attempt n+1 is n*Base
	Retryable   func(error) bool
	Timer       backoff.Timer // nil uses a real timer
}

// Linear is a backoff.BackOff whose n-th delay is n*Base.
type Linear struct {
	Base    time.Duration
	attempt int
}

func (l *Linear) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.Base
}

func (l *Linear) Reset() {
	l.attempt = 0
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// ceiling is reached. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = errs.Retryable
	}

	attempt := 0
	operation := func() error {
		attempt++
		v, err := op(ctx)
		if err != nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name, "error").Inc()
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		metrics.ProviderAttempts.WithLabelValues(p.Name, "ok").Inc()
		result = v
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Printf("[Retry] %s attempt %d/%d failed (%v), waiting %v before retry", p.Name, attempt, maxAttempts, err, wait)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&Linear{Base: p.Base}, uint64(maxAttempts-1)), ctx)
	if err := backoff.RetryNotifyWithTimer(operation, b, notify, p.Timer); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
