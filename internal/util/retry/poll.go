package retry

import (
	"context"
	"time"

	"github.com/imamik/k3sforge/internal/errdefs"
)

// Barrier describes a bounded polling loop: attempts × interval.
type Barrier struct {
	Step     string
	Attempts int
	Interval time.Duration
	Severity errdefs.Severity
}

// Poll calls check until it succeeds or the attempt budget is exhausted.
// Exhaustion returns a *errdefs.StepTimeoutError carrying the barrier's
// severity; callers decide whether a soft timeout is skipped or a hard one
// aborts. Fatal errors stop polling immediately.
func Poll(ctx context.Context, b Barrier, check func(context.Context) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = check(ctx)
		if lastErr == nil {
			return nil
		}
		if IsFatal(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, b.Interval); err != nil {
			return err
		}
	}

	return &errdefs.StepTimeoutError{
		Step:     b.Step,
		Attempts: attempts,
		Interval: b.Interval,
		Severity: b.Severity,
		Err:      lastErr,
	}
}
