package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/errdefs"
)

func TestPoll_SucceedsBeforeBudget(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(context.Background(), Barrier{Step: "cacerts", Attempts: 5, Interval: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_ExhaustedReturnsTimeout(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(context.Background(), Barrier{Step: "gpu", Attempts: 4, Interval: time.Millisecond, Severity: errdefs.SeverityWarning}, func(context.Context) error {
		calls++
		return errors.New("no gpu")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var timeout *errdefs.StepTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "gpu", timeout.Step)
	assert.Equal(t, 4, timeout.Attempts)
	assert.False(t, timeout.Hard())
	assert.EqualError(t, timeout.Err, "no gpu")
}

func TestPoll_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(context.Background(), Barrier{Step: "x", Attempts: 10, Interval: time.Millisecond}, func(context.Context) error {
		calls++
		return Fatal(errors.New("bad credentials"))
	})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, calls)
}

func TestPoll_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, Barrier{Step: "x", Attempts: 3, Interval: time.Hour}, func(context.Context) error {
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll_ZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(context.Background(), Barrier{Step: "x"}, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
