package retrier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HexBridge-io/relayer-go/agreement"
)

var errBoom = errors.New("boom")

func TestAttemptCountExactness(t *testing.T) {
	for maxAttempts := 1; maxAttempts <= 10; maxAttempts++ {
		calls := 0
		_, err := Do(context.Background(), nil, Config{MaxAttempts: maxAttempts}, "always-not-ready",
			func(ctx context.Context) (string, error) {
				calls++
				return "", ErrNotReady
			})

		var rle *RetryLimitError
		require.ErrorAs(t, err, &rle, "maxAttempts=%d", maxAttempts)
		assert.Equal(t, maxAttempts, calls, "maxAttempts=%d", maxAttempts)
		assert.Equal(t, maxAttempts, rle.Attempts)
		assert.ErrorIs(t, err, ErrNotReady)
	}
}

func TestEarlySuccessShortCircuits(t *testing.T) {
	const succeedOn = 3
	calls := 0
	// a delay this large would hang the test if a sleep were scheduled
	// after the successful attempt
	start := time.Now()
	v, err := Do(context.Background(), nil, Config{MaxAttempts: 10, RetryDelay: time.Millisecond}, "succeeds-third",
		func(ctx context.Context) (int, error) {
			calls++
			if calls < succeedOn {
				return 0, ErrNotReady
			}
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, succeedOn, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNoSleepAfterFinalAttempt(t *testing.T) {
	start := time.Now()
	_, err := Do(context.Background(), nil, Config{MaxAttempts: 1, RetryDelay: time.Hour}, "single",
		func(ctx context.Context) (string, error) {
			return "", ErrNotReady
		})
	var rle *RetryLimitError
	require.ErrorAs(t, err, &rle)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTimeoutPrecedence(t *testing.T) {
	clock := agreement.NewManualClock(time.Unix(1700000000, 0))
	calls := 0
	_, err := Do(context.Background(), clock, Config{MaxAttempts: 10, Timeout: 5 * time.Second}, "slow",
		func(ctx context.Context) (string, error) {
			calls++
			// each attempt burns 3s of wall clock
			clock.Advance(3 * time.Second)
			return "", ErrNotReady
		})

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	// attempt 1: elapsed 0s ok; attempt 2: 3s ok; attempt 3 blocked at 6s
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5*time.Second, te.Budget)
}

func TestFatalShortCircuit(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), nil, Config{MaxAttempts: 10}, "fatal-first",
		func(ctx context.Context) (string, error) {
			calls++
			return "", Fatal(errBoom)
		})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestFatalStatusShortCircuit(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), nil, Config{MaxAttempts: 5}, "unauthorized",
		func(ctx context.Context) (string, error) {
			calls++
			return "", NewStatusError(http.StatusUnauthorized, "bad token")
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestInvalidBudgetCoercedToDefault(t *testing.T) {
	for _, maxAttempts := range []int{0, -5} {
		calls := 0
		_, err := Do(context.Background(), nil, Config{MaxAttempts: maxAttempts}, "coerced",
			func(ctx context.Context) (string, error) {
				calls++
				return "", ErrNotReady
			})
		var rle *RetryLimitError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, DefaultMaxAttempts, calls, "maxAttempts=%d", maxAttempts)
	}
}

func TestContextCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, nil, Config{MaxAttempts: 2, RetryDelay: time.Hour}, "cancelled",
			func(ctx context.Context) (string, error) {
				calls++
				return "", ErrNotReady
			})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(ErrNotReady))
	assert.True(t, Retryable(fmt.Errorf("fetch: %w", ErrNotReady)))
	assert.False(t, Retryable(Fatal(errBoom)))
	assert.False(t, Retryable(errBoom)) // unclassified = permanent
	assert.True(t, Retryable(context.DeadlineExceeded))

	retryableCodes := []int{http.StatusNotFound, http.StatusRequestTimeout, http.StatusTooManyRequests}
	for _, code := range retryableCodes {
		assert.True(t, Retryable(NewStatusError(code, "")), "code=%d", code)
	}
	fatalCodes := []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest, http.StatusInternalServerError, http.StatusBadGateway}
	for _, code := range fatalCodes {
		assert.False(t, Retryable(NewStatusError(code, "")), "code=%d", code)
	}
}
