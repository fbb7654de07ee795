package retry

import (
	"context"
	"fmt"
	"time"

	errs "kvault/pkg/errors"
	"kvault/pkg/logger"
)

// Operation is a function that performs an attempt that might need retrying.
type Operation func() error

// OperationWithResult is an attempt that returns a result.
type OperationWithResult[T any] func() (T, error)

// Policy controls the retry loop for one logical operation.
type Policy struct {
	// Attempts is the total attempt budget, including the first call.
	// Values below 1 are treated as 1.
	Attempts int
	// Retryable is the set of classified error kinds eligible for re-attempt.
	// Failures outside the set propagate on first occurrence.
	Retryable []errs.Kind
	// Backoff computes the delay before each re-attempt. Nil means no delay.
	Backoff BackoffStrategy
	// OnRetry is called before each re-attempt, after the delay is computed.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts. Nil disables retry logging.
	Logger logger.Logger
}

// DefaultPolicy returns a policy with the process-wide defaults: two total
// attempts, connection and server faults retryable, 50ms base delay capped
// at two seconds.
func DefaultPolicy() *Policy {
	return &Policy{
		Attempts:  2,
		Retryable: []errs.Kind{errs.KindConnection, errs.KindServer},
		Backoff: &ExponentialBackoff{
			Base:         50 * time.Millisecond,
			MaxWait:      2 * time.Second,
			JitterFactor: 0.25,
		},
		Logger: logger.GetLogger(),
	}
}

func (p *Policy) retryable(kind errs.Kind) bool {
	for _, k := range p.Retryable {
		if k == kind {
			return true
		}
	}
	return false
}

// Do executes op up to p.Attempts times. A success returns immediately. A
// failure whose kind is not in p.Retryable propagates unchanged after a
// single call, regardless of remaining budget. A retryable failure on the
// final attempt propagates unchanged; intermediate retryable failures are
// swallowed. The loop is strictly sequential: the next attempt starts only
// after the previous outcome is known and the full backoff delay has elapsed.
func Do(ctx context.Context, p *Policy, op Operation) error {
	if p == nil {
		p = DefaultPolicy()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		kind := errs.KindOf(err)
		if !p.retryable(kind) {
			if p.Logger != nil {
				p.Logger.DebugWithFields("error kind is not retryable", map[string]interface{}{
					"kind":  string(kind),
					"error": err.Error(),
				})
			}
			return err
		}

		if attempt >= attempts {
			if p.Logger != nil {
				p.Logger.ErrorWithFields("retry budget exhausted", map[string]interface{}{
					"attempts":   attempt,
					"last_error": err.Error(),
				})
			}
			// The caller sees the error from the final attempt, not a wrapper.
			return err
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff.NextDelay(attempt)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		if p.Logger != nil {
			p.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": attempts,
				"kind":         string(kind),
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
			})
		}

		if werr := Wait(ctx, delay); werr != nil {
			if p.Logger != nil {
				p.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  werr.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic.
func DoWithResult[T any](ctx context.Context, p *Policy, op OperationWithResult[T]) (T, error) {
	var result T

	err := Do(ctx, p, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})

	return result, err
}
