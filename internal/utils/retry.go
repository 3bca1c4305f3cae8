package utils

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	apperrors "github.com/socialchef/larder/internal/errors"
)

// RetryConfig holds the configuration for the retry mechanism.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Timeout bounds each attempt. Zero leaves the caller's deadline alone.
	Timeout time.Duration
	// RetryableErrors are substrings matched against errors that carry no
	// AppError classification.
	RetryableErrors []string
	// Retryable, when set, replaces the default classification.
	Retryable func(error) bool
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// RetryableFunc defines the signature for operations that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// GenerationRetryConfig returns the policy for chat completion calls.
// maxAttempts below 1 is treated as a single attempt.
func GenerationRetryConfig(maxAttempts int, timeout time.Duration) RetryConfig {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryConfig{
		MaxAttempts:   maxAttempts,
		InitialDelay:  1 * time.Second,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2.0,
		Timeout:       timeout,
		RetryableErrors: []string{
			"timeout",
			"connection reset",
			"connection refused",
			"rate limit",
			"eof",
		},
	}
}

// IsRetryableError reports whether err is worth another attempt. Classified
// AppErrors decide for themselves; anything else is matched against patterns.
func IsRetryableError(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.IsRetryable()
	}
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(errMsg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// WithRetry executes the given operation with retries based on the provided config.
func WithRetry[T any](ctx context.Context, operation RetryableFunc[T], config RetryConfig) (T, error) {
	var lastErr error
	var zero T

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := runAttempt(ctx, operation, config.Timeout)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !config.shouldRetry(err) {
			break
		}

		delay := backoff(config, attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

func (c RetryConfig) shouldRetry(err error) bool {
	if c.Retryable != nil {
		return c.Retryable(err)
	}
	return IsRetryableError(err, c.RetryableErrors)
}

func runAttempt[T any](ctx context.Context, operation RetryableFunc[T], timeout time.Duration) (T, error) {
	if timeout <= 0 {
		return operation(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return operation(attemptCtx)
}

// backoff is InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay,
// plus up to 10% jitter.
func backoff(config RetryConfig, attempt int) time.Duration {
	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(factor, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if jitterRange := int64(delay) / 10; jitterRange > 0 {
		delay += time.Duration(rand.Int63n(jitterRange))
	}
	return delay
}
