// ABOUTME: This file implements a minimum-interval rate limiter for outbound resolution requests
// ABOUTME: Guarantees a wall-clock gap between requests without stalling other callers during I/O
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// IntervalLimiter enforces a minimum wall-clock interval between requests.
// Bookkeeping happens in a short critical section; the actual wait runs
// outside the lock so concurrent callers queue on the timer, not the mutex.
type IntervalLimiter struct {
	interval    time.Duration
	lastRequest time.Time
	mu          sync.Mutex
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewIntervalLimiter(interval time.Duration, logger *slog.Logger) (*IntervalLimiter, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}

	return &IntervalLimiter{
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Wait blocks until the minimum interval since the last request has elapsed.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		elapsed := now.Sub(l.lastRequest)

		if l.lastRequest.IsZero() || elapsed >= l.interval {
			l.lastRequest = now
			l.mu.Unlock()
			return nil
		}

		waitTime := l.interval - elapsed
		l.mu.Unlock()

		l.logger.Debug("rate limit wait", "wait_ms", waitTime.Milliseconds())

		timer := time.NewTimer(waitTime)
		select {
		case <-timer.C:
			// Loop again: another caller may have claimed the slot while
			// this one slept.
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
		}
	}
}

// Interval returns the configured minimum interval.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}
