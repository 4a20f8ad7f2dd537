// Package retry re-runs failing operations with linear or exponential
// backoff, optional jitter and a delay cap.
//
// Only transient failures are retried by default: network errors, 408, 429
// and 5xx. A cancelled context stops the loop before the next attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/printproxy/console/internal/core/domain"
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	Linear      Backoff = "linear"
	Exponential Backoff = "exponential"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultJitter      = 0.2
)

// Options tune a retry loop. Zero values take the defaults above; a negative
// Jitter disables jitter.
type Options struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     Backoff
	MaxDelay    time.Duration
	Jitter      float64

	// ShouldRetry decides whether err (from the given 1-based attempt) is
	// worth another try. Defaults to DefaultShouldRetry.
	ShouldRetry func(err error, attempt int) bool
	// OnRetry is called before sleeping.
	OnRetry func(err error, attempt int, wait time.Duration)

	// Sleep and Rand are replaceable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func() float64
}

// Error is returned when the loop gives up.
type Error struct {
	Attempts int
	Last     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *Error) Unwrap() error { return e.Last }

// DefaultShouldRetry retries network failures, 408, 429 and 5xx.
func DefaultShouldRetry(err error, _ int) bool {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Retryable()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Do calls fn until it succeeds, the predicate refuses, attempts run out or
// ctx is done.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), opts Options) (T, error) {
	o := opts.withDefaults()
	var zero T

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, &Error{Attempts: attempt, Last: fmt.Errorf("%w (last error: %w)", ctxErr, err)}
		}
		if attempt >= o.MaxAttempts || !o.ShouldRetry(err, attempt) {
			return zero, &Error{Attempts: attempt, Last: err}
		}

		wait := o.wait(attempt)
		if o.OnRetry != nil {
			o.OnRetry(err, attempt, wait)
		}
		if sleepErr := o.Sleep(ctx, wait); sleepErr != nil {
			return zero, &Error{Attempts: attempt, Last: fmt.Errorf("%w (last error: %w)", sleepErr, err)}
		}
	}
}

// Retryable wraps fn so every call goes through Do.
func Retryable[T any](fn func(context.Context) (T, error), opts Options) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, fn, opts)
	}
}

// Delay returns the wait before attempt+1 without jitter.
func Delay(base time.Duration, attempt int, b Backoff, maxDelay time.Duration) time.Duration {
	o := Options{Delay: base, Backoff: b, MaxDelay: maxDelay, Jitter: -1}.withDefaults()
	return o.wait(attempt)
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Backoff == "" {
		o.Backoff = Exponential
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Jitter == 0 {
		o.Jitter = DefaultJitter
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = DefaultShouldRetry
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
	return o
}

func (o Options) wait(attempt int) time.Duration {
	base := float64(o.Delay)
	var d float64
	if o.Backoff == Linear {
		d = base * float64(attempt)
	} else {
		d = base * math.Pow(2, float64(attempt-1))
	}

	if o.Jitter > 0 {
		d += d * o.Jitter * (o.Rand()*2 - 1)
	}

	d = math.Min(d, float64(o.MaxDelay))
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
