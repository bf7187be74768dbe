// ABOUTME: This file implements exponential backoff retry mechanism with jitter
// ABOUTME: Provides resilient error handling for external service calls
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

type ErrorClassifier func(error) bool

type Retrier struct {
	config      RetryConfig
	isRetryable ErrorClassifier
	logger      *slog.Logger
}

func NewRetrier(config RetryConfig, classifier ErrorClassifier, logger *slog.Logger) *Retrier {
	return &Retrier{
		config:      config,
		isRetryable: classifier,
		logger:      logger,
	}
}

func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Info("operation succeeded after retry",
					"attempt", attempt,
					"max_attempts", r.config.MaxAttempts)
			}
			return nil
		}

		isRetryable := r.isRetryable != nil && r.isRetryable(lastErr)
		r.logger.Warn("operation attempt failed",
			"attempt", attempt,
			"error", lastErr,
			"retryable", isRetryable)

		// 最後の試行の場合、または、リトライ不可能なエラーの場合
		if attempt == r.config.MaxAttempts || !isRetryable {
			break
		}

		delay := r.calculateDelay(attempt)
		r.logger.Debug("retry backoff wait",
			"attempt", attempt,
			"retry_delay_ms", delay.Milliseconds())

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *Retrier) calculateDelay(attempt int) time.Duration {
	// 指数バックオフ
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	// ジッター追加（サンダリングハード防止）
	jitter := 1.0 + (rand.Float64()-0.5)*r.config.JitterFactor
	delay *= jitter

	return time.Duration(delay)
}
