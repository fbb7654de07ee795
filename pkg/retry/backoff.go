package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay inserted before a re-attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay to wait after the given 1-based attempt.
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay on every failed attempt, capped at
// MaxWait. A bounded random jitter is added so that concurrent callers do not
// retry in lockstep; the final delay never exceeds MaxWait. A zero Base
// collapses every delay to zero, which keeps tests deterministic.
type ExponentialBackoff struct {
	// Base is the delay after the first failed attempt.
	Base time.Duration
	// MaxWait caps the computed delay, jitter included.
	MaxWait time.Duration
	// JitterFactor is the fraction of the delay added as randomness (0.0-1.0).
	JitterFactor float64
}

// NextDelay computes min(MaxWait, Base * 2^(attempt-1)) plus bounded jitter.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || eb.Base <= 0 {
		return 0
	}

	delay := float64(eb.Base) * math.Pow(2, float64(attempt-1))
	if max := float64(eb.MaxWait); eb.MaxWait > 0 && delay > max {
		delay = max
	}

	if eb.JitterFactor > 0 {
		delay += rand.Float64() * eb.JitterFactor * delay
		if max := float64(eb.MaxWait); eb.MaxWait > 0 && delay > max {
			delay = max
		}
	}

	return time.Duration(delay)
}

// ConstantBackoff waits the same delay between every attempt.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait blocks for the given delay or until the context is cancelled. The wait
// suspends only the calling flow; other goroutines sharing the same client
// are unaffected.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
