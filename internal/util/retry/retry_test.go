package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() []Option {
	return []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}
}

func TestWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int
		retries   int
		wantCalls int
		wantErr   string
	}{
		{name: "first try", failures: 0, retries: 3, wantCalls: 1},
		{name: "after transient failures", failures: 2, retries: 3, wantCalls: 3},
		{name: "budget exhausted", failures: 10, retries: 2, wantCalls: 3, wantErr: "gave up after 3 attempts: attempt 3 failed"},
		{name: "no retries", failures: 10, retries: 0, wantCalls: 1, wantErr: "gave up after 1 attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := WithExponentialBackoff(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return fmt.Errorf("attempt %d failed", calls)
				}
				return nil
			}, append(fast(), WithMaxRetries(tt.retries))...)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithExponentialBackoff_FatalStops(t *testing.T) {
	t.Parallel()
	cause := errors.New("401 unauthorized")
	calls := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return Fatal(cause)
	}, fast()...)

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "not retrying")
}

func TestWithExponentialBackoff_ContextEnds(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithExponentialBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("unavailable")
	}, WithInitialDelay(time.Hour))

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "canceled after 1 attempts")
}

func TestWithExponentialBackoff_DelayGrowsToCap(t *testing.T) {
	t.Parallel()
	var stamps []time.Time
	err := WithExponentialBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("again")
		}
		return nil
	}, WithInitialDelay(10*time.Millisecond), WithMaxDelay(20*time.Millisecond), WithMultiplier(4), WithMaxRetries(5))
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 10*time.Millisecond)
	// 10ms * 4 is capped at 20ms.
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 20*time.Millisecond)
	assert.Less(t, stamps[3].Sub(stamps[2]), 200*time.Millisecond)
}

func TestFatal(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Fatal(nil))

	cause := errors.New("bad key")
	err := fmt.Errorf("connect: %w", Fatal(cause))
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(Fatal(cause)))
	assert.EqualError(t, Fatal(cause), "bad key")

	assert.False(t, IsFatal(cause))
	assert.False(t, IsFatal(nil))
}
