// Package retry provides bounded exponential backoff for service startup.
// Ingestion requests never retry; a failed source call is reported to the caller.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, fraction of the delay randomized in both directions
}

// StartupConfig suits waiting for a database that starts alongside the service:
// 8 retries from 250ms, capped at 10s, doubling, with 10% jitter.
func StartupConfig() *Config {
	return &Config{
		MaxRetries:   8,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter returns delay +/- (delay * jitterFactor * random(-1 to +1)).
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// nextDelay grows delay by the multiplier, capped at MaxDelay.
func (c *Config) nextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * c.Multiplier)
	if next > c.MaxDelay {
		return c.MaxDelay
	}
	return next
}

// DoWithResult executes fn until it succeeds or retries are exhausted.
// It returns the last error when every attempt fails and ctx.Err() when
// the context ends during a wait.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = StartupConfig()
	}

	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(applyJitter(delay, cfg.JitterFactor))
		select {
		case <-timer.C:
			delay = cfg.nextDelay(delay)
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
