// Package retry provides bounded retry with exponential backoff for the
// image generation adapter, the pipeline's most failure-prone external
// call.
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts bounds how often an operation runs in total.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the backoff base between attempts.
	DefaultBaseDelay = 5 * time.Second
	// defaultJitterPercent spreads delays to avoid thundering herds.
	defaultJitterPercent = 25
)

// Config holds retry configuration
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	JitterPercent int
	// OnRetry is called before each wait with the upcoming attempt
	// number and the delay.
	OnRetry func(attempt int, delay time.Duration)
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		JitterPercent: defaultJitterPercent,
	}
}

// Do runs op until it succeeds, the error is non-retryable, attempts are
// exhausted, or the context is cancelled. The final result is returned.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.JitterPercent < 0 || cfg.JitterPercent > 100 {
		cfg.JitterPercent = defaultJitterPercent
	}

	var result T
	var err error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt == cfg.MaxAttempts {
			return result, err
		}

		delay := Delay(cfg.BaseDelay, attempt, cfg.JitterPercent)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}
	return result, err
}

// Delay returns the backoff for an attempt: base * 2^(attempt-1) plus
// 0-jitterPercent% jitter.
func Delay(base time.Duration, attempt int, jitterPercent int) time.Duration {
	delay := base << (attempt - 1)
	if jitterPercent > 0 {
		jitterRange := float64(delay) * float64(jitterPercent) / 100.0
		delay += time.Duration(rand.Float64() * jitterRange)
	}
	return delay
}

var retryablePatterns = []string{
	"rate limit",
	"rate_limit",
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"overloaded",
	"503",
	"502",
	"429",
}

var nonRetryablePatterns = []string{
	"invalid",
	"unauthorized",
	"forbidden",
	"authentication",
	"permission denied",
	"bad request",
	"not found",
	"400",
	"401",
	"403",
	"404",
}

// IsRetryable classifies an error: rate limits, timeouts and transient
// network failures retry; auth and malformed-request errors do not.
// Unknown errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range nonRetryablePatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
