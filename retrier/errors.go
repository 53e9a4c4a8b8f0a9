package retrier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrNotReady is the sentinel a proof source returns when the thing being
// proven has simply not happened yet (attestation pending, balance not
// credited, receipt not mined). It is a normal polling outcome, not a
// failure, and must never be logged at error severity.
var ErrNotReady = errors.New("not ready")

// StatusError carries the HTTP status code of a proof-source response so
// retryability is decided from the code, not from message text.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Msg)
}

func NewStatusError(code int, format string, args ...interface{}) *StatusError {
	return &StatusError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// FatalError marks an error as permanently unserviceable as formed.
// The engine surfaces it immediately without consuming further attempts.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// RetryLimitError reports that the attempt budget was exhausted while the
// outcome remained "not ready". Distinct from TimeoutError for diagnosability.
type RetryLimitError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("%s: retry limit reached after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *RetryLimitError) Unwrap() error { return e.Last }

// TimeoutError reports wall-clock budget exhaustion.
type TimeoutError struct {
	Op      string
	Elapsed time.Duration
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s (budget %s)", e.Op, e.Elapsed, e.Budget)
}

// Retryable reports whether another attempt could possibly succeed.
//
// Not-ready outcomes, network failures, timeouts and HTTP 404/408/429 are
// transient. HTTP 401/403, server errors and anything wrapped in FatalError
// are permanent. Unclassified errors are treated as permanent so a broken
// request is never hammered against a dependency.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}
	if errors.Is(err, ErrNotReady) {
		return true
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound, http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
