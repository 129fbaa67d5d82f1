package infra

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"cipher_go/internal/domain"
)

// CalculateBackoff returns base * 2^retry capped at max.
func CalculateBackoff(base, max time.Duration, retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	delay := base * time.Duration(math.Pow(2, float64(retry)))
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}

// Retry calls fn up to attempts times with exponential backoff (base, 2*base, ...).
// It stops early on success, on a non-retriable error or when ctx is done,
// and returns the last error.
func Retry(ctx context.Context, attempts int, base time.Duration, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := CalculateBackoff(base, base*time.Duration(1<<uint(attempts)), i-1)
			logger.Info("Retrying", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
		if !retriable(err) {
			return err
		}
	}
	return lastErr
}

// retriable treats errors without a classification as retriable.
func retriable(err error) bool {
	var re domain.RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return true
}
