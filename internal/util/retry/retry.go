package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backoff bounds an exponential retry loop.
type Backoff struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff is used when no option overrides a field.
var DefaultBackoff = Backoff{
	MaxRetries:   5,
	InitialDelay: time.Second,
	MaxDelay:     30 * time.Second,
	Multiplier:   2,
}

// Option adjusts a Backoff.
type Option func(*Backoff)

// WithMaxRetries sets how many times a failed operation is retried.
func WithMaxRetries(n int) Option { return func(b *Backoff) { b.MaxRetries = n } }

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) Option { return func(b *Backoff) { b.InitialDelay = d } }

// WithMaxDelay caps the wait between retries.
func WithMaxDelay(d time.Duration) Option { return func(b *Backoff) { b.MaxDelay = d } }

// WithMultiplier sets the growth factor of the wait.
func WithMultiplier(m float64) Option { return func(b *Backoff) { b.Multiplier = m } }

// WithExponentialBackoff runs operation until it succeeds, returns a Fatal
// error, the context ends, or MaxRetries retries have failed.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	b := DefaultBackoff
	for _, opt := range opts {
		opt(&b)
	}

	delay := b.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation()
		switch {
		case err == nil:
			return nil
		case IsFatal(err):
			return fmt.Errorf("not retrying: %w", err)
		case attempt > b.MaxRetries:
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("canceled after %d attempts: %w", attempt, err)
		}
		delay = min(time.Duration(float64(delay)*b.Multiplier), b.MaxDelay)
	}
}

// sleep waits for d or until ctx ends.
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

// FatalError marks an error that retrying cannot fix.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so retry loops stop on it. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err or anything it wraps was marked Fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
