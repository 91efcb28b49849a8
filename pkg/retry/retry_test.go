package retry

import (
	"context"
	"testing"
	"time"

	"github.com/shopops/payment-reaper/pkg/errors"
	"github.com/shopops/payment-reaper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts: maxAttempts,
		BackoffStrategy: &ExponentialBackoff{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      1.5,
		},
		Logger: logger.NewLogger("error"),
		RetryableErrors: []error{
			errors.ErrTimeout,
			errors.ErrTemporaryFailure,
			errors.ErrServiceUnavailable,
		},
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return errors.NewTemporaryError("gateway error: 503")
		}
		return nil
	}

	err := Retry(context.Background(), fn, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_PermanentErrorIsNotRetried(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return errors.NewPermanentError("gateway rejected message: 400")
	}

	err := Retry(context.Background(), fn, testConfig(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPermanentFailure)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return errors.NewTimeoutError("gateway request timed out")
	}

	err := Retry(context.Background(), fn, testConfig(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Contains(t, err.Error(), "all 3 retry attempts failed")
	assert.Equal(t, 3, attempts)
}

func TestRetry_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, func() error { return nil }, testConfig(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponentialBackoff_GrowthIsCapped(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     300 * time.Millisecond,
		Multiplier:      2,
	}

	assert.Equal(t, 100*time.Millisecond, b.NextBackoff(1))
	assert.Equal(t, 200*time.Millisecond, b.NextBackoff(2))
	assert.Equal(t, 300*time.Millisecond, b.NextBackoff(3), "growth past the cap is clamped")
	assert.Equal(t, 300*time.Millisecond, b.NextBackoff(4))
}
