package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap/zaptest"

	"github.com/coinbase/chaingov/internal/utils/testutil"
)

var errMock = errors.New("mock error")

func noBackoff() Backoff {
	return &backoff.ZeroBackOff{}
}

func TestDo_Success(t *testing.T) {
	require := testutil.Require(t)

	p := New(WithBackoffFactory(noBackoff))
	numCalls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		numCalls += 1
		return nil
	})
	require.NoError(err)
	require.Equal(1, numCalls)
}

func TestDo_NonRetryable(t *testing.T) {
	require := testutil.Require(t)

	p := New(WithBackoffFactory(noBackoff))
	numCalls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		numCalls += 1
		return errMock
	})
	require.Error(err)
	require.True(errors.Is(err, errMock))
	require.Equal(1, numCalls)
}

func TestDo_Retryable(t *testing.T) {
	tests := []struct {
		name string
		wrap func(err error) error
	}{
		{name: "retryable", wrap: Retryable},
		{name: "rateLimit", wrap: func(err error) error { return &RateLimitError{Err: err} }},
		{name: "wrapped", wrap: func(err error) error { return fmt.Errorf("wrapped error: %w", Retryable(err)) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := testutil.Require(t)

			p := New(WithBackoffFactory(noBackoff))
			numCalls := 0
			err := p.Do(context.Background(), func(ctx context.Context) error {
				numCalls += 1
				if numCalls < DefaultMaxAttempts {
					return test.wrap(errMock)
				}

				return nil
			})
			require.NoError(err)
			require.Equal(DefaultMaxAttempts, numCalls)
		})
	}
}

func TestDo_PermanentAfterRetries(t *testing.T) {
	require := testutil.Require(t)

	p := New(WithBackoffFactory(noBackoff))
	numCalls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		numCalls += 1
		if numCalls < 2 {
			return Retryable(errMock)
		}

		return errMock
	})
	require.Error(err)
	require.Equal(2, numCalls)
	require.False(IsRetryable(err))
	require.True(errors.Is(err, errMock))
}

func TestDo_MaxAttemptsExceeded(t *testing.T) {
	require := testutil.Require(t)

	p := New(
		WithBackoffFactory(noBackoff),
		WithMaxAttempts(5),
		WithLogger(zaptest.NewLogger(t)),
	)
	require.Equal(5, p.MaxAttempts())

	numCalls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		numCalls += 1
		return Retryable(errMock)
	})
	require.Error(err)
	require.Equal(5, numCalls)
	require.True(IsRetryable(err))
	require.True(errors.Is(err, errMock))
}

func TestDoWithResult(t *testing.T) {
	require := testutil.Require(t)

	p := New(WithBackoffFactory(noBackoff))
	numCalls := 0
	res, err := DoWithResult(context.Background(), p, func(ctx context.Context) (string, error) {
		numCalls += 1
		if numCalls == 1 {
			return "", Retryable(errMock)
		}

		return "success", nil
	})
	require.NoError(err)
	require.Equal("success", res)
	require.Equal(2, numCalls)
}

func TestDoWithResult_NilPolicy(t *testing.T) {
	require := testutil.Require(t)

	numCalls := 0
	_, err := DoWithResult(context.Background(), nil, func(ctx context.Context) (int, error) {
		numCalls += 1
		return 0, Retryable(errMock)
	})
	require.Error(err)
	require.Equal(1, numCalls)
}

func TestErrorMessages(t *testing.T) {
	require := testutil.Require(t)

	require.Equal("retryable: mock error", Retryable(errMock).Error())
	require.Equal("rate limited: mock error", RateLimit(errMock).Error())
}
