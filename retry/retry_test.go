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

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Policy{}, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	result, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Transient(errors.New("upstream hiccup"))
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, RateLimited(fmt.Errorf("attempt %d", calls))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "attempt 3")
}

func TestDoPermanentShortCircuits(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errors.New("bad request"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoFactoryInvokedFreshEachAttempt(t *testing.T) {
	var seen []int
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	_, _ = Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		seen = append(seen, calls)
		return 0, Timeout(errors.New("deadline"))
	})
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDoContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Hour}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, policy, func(ctx context.Context) (int, error) {
		return 0, Transient(errors.New("flaky"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableKindDispatch(t *testing.T) {
	assert.True(t, IsRetryable(RateLimited(errors.New("429"))))
	assert.True(t, IsRetryable(Timeout(errors.New("deadline"))))
	assert.True(t, IsRetryable(Transient(errors.New("503"))))
	assert.False(t, IsRetryable(Permanent(errors.New("401"))))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryableWrappedKindWins(t *testing.T) {
	// A Permanent kind stays non-retryable even if the message looks transient.
	err := Permanent(errors.New("rate limit exceeded"))
	assert.False(t, IsRetryable(fmt.Errorf("calling provider: %w", err)))
}

func TestIsRetryableMessageFallback(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("request timeout")))
	assert.True(t, IsRetryable(errors.New("model temporarily unavailable")))
	assert.True(t, IsRetryable(errors.New("server overloaded")))
	assert.True(t, IsRetryable(errors.New("rate limit exceeded")))
	assert.False(t, IsRetryable(errors.New("invalid api key")))
}

func TestDelayBounds(t *testing.T) {
	policy := Policy{BaseDelay: time.Second, MaxDelay: time.Minute}
	for attempt := 0; attempt < 10; attempt++ {
		base := float64(time.Second) * float64(int(1)<<attempt)
		if base > float64(time.Minute) {
			base = float64(time.Minute)
		}
		for i := 0; i < 50; i++ {
			d := policy.Delay(attempt)
			assert.GreaterOrEqual(t, float64(d), base*0.8-1)
			assert.LessOrEqual(t, float64(d), base*1.2+1)
		}
	}
}
