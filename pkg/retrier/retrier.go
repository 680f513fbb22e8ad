// Package retrier repeats idempotent calls with capped exponential backoff.
// Only failures accepted by the retry classifier are repeated; anything else,
// and the last failure once attempts run out, is returned as is.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultAttempts = 3
	defaultBase     = 500 * time.Millisecond
	defaultCeiling  = 10 * time.Second
	backoffFactor   = 2
	jitterFraction  = 0.1
)

// Retrier holds a retry policy. It is safe for concurrent use.
type Retrier struct {
	attempts  int
	base      time.Duration
	ceiling   time.Duration
	retryable func(error) bool
}

// Option adjusts a Retrier.
type Option func(*Retrier)

// WithMaxRetries sets how many times a failed call is repeated; 0 disables
// retries.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.attempts = max(n, 0) + 1
	}
}

// WithInitialInterval sets the wait before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.base = d
	}
}

// WithMaxInterval caps the wait between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.ceiling = d
	}
}

// WithRetryIf sets the classifier deciding which failures are worth another
// attempt. By default every failure is.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

// New creates a Retrier with two retries starting at 500ms.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		attempts:  defaultAttempts,
		base:      defaultBase,
		ceiling:   defaultCeiling,
		retryable: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls fn until it succeeds, fails with a non-retryable error or the
// attempts are used up. A context ending during a wait returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= r.attempts || !r.retryable(err) {
			return err
		}

		timer := time.NewTimer(r.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// delay is the wait after the given failed attempt: base doubled per
// attempt, capped, with ±10% jitter.
func (r *Retrier) delay(attempt int) time.Duration {
	d := r.base
	for i := 1; i < attempt && d < r.ceiling; i++ {
		d *= backoffFactor
	}
	d = min(d, r.ceiling)

	jitter := (rand.Float64()*2 - 1) * jitterFraction * float64(d)
	return max(d+time.Duration(jitter), 0)
}

// DoWithData is Do for calls that return a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
