// Bounded-retry executor shared by the proof sources (attestation service,
// balance poller). An operation yields a result, ErrNotReady, or an error;
// retryable outcomes are re-attempted up to MaxAttempts total attempts or a
// wall-clock Timeout, whichever trips first.

package retrier

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/HexBridge-io/relayer-go/agreement"
)

const DefaultMaxAttempts = 3

type Config struct {
	// MaxAttempts is the total attempt budget, first attempt included.
	// Values below 1 are coerced to DefaultMaxAttempts with a logged warning.
	MaxAttempts int
	// RetryDelay is the suspension between attempts. Never applied after
	// the final attempt.
	RetryDelay time.Duration
	// Timeout is the wall-clock budget measured from the first attempt,
	// checked before each attempt. Zero disables the check.
	Timeout time.Duration
}

type Operation[T any] func(ctx context.Context) (T, error)

// Do runs op until it succeeds, fails fatally, or exhausts a budget.
//
// The attempt count is exact: absent early success, fatal error or timeout,
// op is invoked exactly MaxAttempts times and then a *RetryLimitError is
// returned. The timeout check precedes each attempt and wins over the
// attempt budget, returning *TimeoutError.
func Do[T any](ctx context.Context, clock agreement.Clock, cfg Config, name string, op Operation[T]) (T, error) {
	var zero T

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		logger.WithFields(logger.Fields{
			"op":          name,
			"maxAttempts": cfg.MaxAttempts,
			"default":     DefaultMaxAttempts,
		}).Warn("invalid retry attempt budget, using default")
		maxAttempts = DefaultMaxAttempts
	}
	if clock == nil {
		clock = agreement.RealClock{}
	}

	start := clock.Now()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if cfg.Timeout > 0 {
			if elapsed := clock.Now().Sub(start); elapsed > cfg.Timeout {
				return zero, &TimeoutError{Op: name, Elapsed: elapsed, Budget: cfg.Timeout}
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !Retryable(err) {
			// fatal outcomes propagate untouched, budget untouched
			return zero, err
		}
		lastErr = err

		if attempt == maxAttempts {
			logger.WithFields(logger.Fields{
				"op":       name,
				"attempts": maxAttempts,
			}).Warn("retry limit reached")
			break
		}

		logger.WithFields(logger.Fields{
			"op":      name,
			"attempt": attempt,
			"max":     maxAttempts,
			"delay":   cfg.RetryDelay.String(),
		}).Debug("not ready, will retry")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	return zero, &RetryLimitError{Op: name, Attempts: maxAttempts, Last: lastErr}
}
