// ABOUTME: This file tests the retry mechanism with exponential backoff and jitter
// ABOUTME: Covers classifier short-circuits, attempt budgets, and context cancellation
package retry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func fastConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   maxAttempts,
		BaseDelay:     1 * time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func TestRetrier_Do(t *testing.T) {
	t.Run("should succeed on first attempt", func(t *testing.T) {
		retrier := NewRetrier(fastConfig(3), IsRetryableError, testLogger())

		calls := 0
		err := retrier.Do(context.Background(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("should retry retryable errors until success", func(t *testing.T) {
		retrier := NewRetrier(fastConfig(5), IsRetryableError, testLogger())

		calls := 0
		err := retrier.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &HTTPError{StatusCode: 503, Message: "unavailable"}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("should stop immediately on permanent error", func(t *testing.T) {
		retrier := NewRetrier(fastConfig(5), IsRetryableError, testLogger())

		calls := 0
		err := retrier.Do(context.Background(), func() error {
			calls++
			return &HTTPError{StatusCode: 404, Message: "not found"}
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("should exhaust the attempt budget on persistent retryable errors", func(t *testing.T) {
		retrier := NewRetrier(fastConfig(3), IsRetryableError, testLogger())

		calls := 0
		err := retrier.Do(context.Background(), func() error {
			calls++
			return &HTTPError{StatusCode: 503, Message: "unavailable"}
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)

		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, 503, httpErr.StatusCode)
	})

	t.Run("should honour context cancellation between attempts", func(t *testing.T) {
		cfg := fastConfig(5)
		cfg.BaseDelay = 100 * time.Millisecond
		retrier := NewRetrier(cfg, IsRetryableError, testLogger())

		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := retrier.Do(ctx, func() error {
			calls++
			return &HTTPError{StatusCode: 503, Message: "unavailable"}
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := map[string]struct {
		err       error
		retryable bool
	}{
		"nil error":           {err: nil, retryable: false},
		"context canceled":    {err: context.Canceled, retryable: false},
		"deadline exceeded":   {err: context.DeadlineExceeded, retryable: true},
		"HTTP 400":            {err: &HTTPError{StatusCode: 400}, retryable: false},
		"HTTP 404":            {err: &HTTPError{StatusCode: 404}, retryable: false},
		"HTTP 403":            {err: &HTTPError{StatusCode: 403}, retryable: true},
		"HTTP 408":            {err: &HTTPError{StatusCode: 408}, retryable: true},
		"HTTP 429":            {err: &HTTPError{StatusCode: 429}, retryable: true},
		"HTTP 502":            {err: &HTTPError{StatusCode: 502}, retryable: true},
		"HTTP 503":            {err: &HTTPError{StatusCode: 503}, retryable: true},
		"unclassified error":  {err: errors.New("boom"), retryable: false},
		"wrapped HTTP status": {err: errorsJoinWrap(&HTTPError{StatusCode: 503}), retryable: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, IsRetryableError(tc.err))
		})
	}
}

func errorsJoinWrap(err error) error {
	return errors.Join(errors.New("request failed"), err)
}

func TestStatusClassification(t *testing.T) {
	t.Run("should flag block statuses for proxy rotation", func(t *testing.T) {
		for _, status := range []int{403, 429, 502, 503} {
			assert.True(t, IsBlockStatus(status), "status %d", status)
		}
		for _, status := range []int{200, 400, 404, 500} {
			assert.False(t, IsBlockStatus(status), "status %d", status)
		}
	})

	t.Run("should extract status codes from wrapped errors", func(t *testing.T) {
		err := errorsJoinWrap(&HTTPError{StatusCode: 429})
		assert.Equal(t, 429, StatusCode(err))
		assert.Equal(t, 0, StatusCode(errors.New("no status")))
	})
}
