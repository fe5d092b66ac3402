package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type (
	// Policy retries an operation on top of "cenkalti/backoff".
	// Only RetryableError and RateLimitError are retried; any other error is treated as permanent.
	// Errors may be wrapped with xerrors since classification uses xerrors.As.
	// Retrying stops once either the max elapsed time or the max attempts is exceeded.
	Policy struct {
		maxAttempts    int
		backoffFactory BackoffFactory
		logger         *zap.Logger
	}

	OperationFn                  func(ctx context.Context) error
	OperationWithResultFn[T any] func(ctx context.Context) (T, error)
	Backoff                      backoff.BackOff

	// BackoffFactory returns a new instance of backoff policy.
	BackoffFactory func() Backoff

	Option func(p *Policy)
)

const (
	DefaultMaxAttempts         = 4
	defaultInitialInterval     = 200 * time.Millisecond
	defaultRandomizationFactor = 0.5
	defaultMultiplier          = 2
	defaultMaxInterval         = 15 * time.Second
	defaultMaxElapsedTime      = 5 * time.Minute
	rateLimitPenalty           = time.Second
)

func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts:    DefaultMaxAttempts,
		backoffFactory: defaultBackoffFactory,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithMaxAttempts sets the maximum number of attempts.
// When maxAttempts is 1, the operation is executed exactly once.
func WithMaxAttempts(maxAttempts int) Option {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return func(p *Policy) {
		p.maxAttempts = maxAttempts
	}
}

// WithBackoffFactory overrides the default exponential backoff.
func WithBackoffFactory(backoffFactory BackoffFactory) Option {
	return func(p *Policy) {
		p.backoffFactory = backoffFactory
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Do runs the operation until it succeeds, fails permanently, or runs out of attempts.
func (p *Policy) Do(ctx context.Context, operation OperationFn) error {
	_, err := DoWithResult(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// DoWithResult is the generic counterpart of Policy.Do.
func DoWithResult[T any](ctx context.Context, p *Policy, operation OperationWithResultFn[T]) (T, error) {
	if p == nil {
		return operation(ctx)
	}

	backoffContext := backoff.WithContext(p.backoffFactory(), ctx)

	attempts := 0
	attempt := func() (T, error) {
		res, err := operation(ctx)
		attempts += 1
		if err == nil {
			return res, nil
		}

		logger := p.logger.With(zap.Int("attempts", attempts), zap.Error(err))
		if !IsRetryable(err) {
			logger.Warn("encountered a permanent error")
			return res, backoff.Permanent(err)
		}

		if attempts >= p.maxAttempts {
			logger.Warn("max attempts exceeded")
			return res, backoff.Permanent(err)
		}

		logger.Warn("encountered a retryable error")
		return res, err
	}

	notify := func(err error, duration time.Duration) {
		var rateLimitErr *RateLimitError
		if !xerrors.As(err, &rateLimitErr) {
			return
		}

		// Rate limited by the remote end: wait a little longer than the backoff suggests.
		select {
		case <-backoffContext.Context().Done():
		case <-time.After(duration + rateLimitPenalty):
		}
	}

	return backoff.RetryNotifyWithData[T](attempt, backoffContext, notify)
}

// IsRetryable reports whether err, or any error it wraps, is a RetryableError or a RateLimitError.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	var rateLimitErr *RateLimitError
	return xerrors.As(err, &retryableErr) || xerrors.As(err, &rateLimitErr)
}

func defaultBackoffFactory() Backoff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     defaultInitialInterval,
		RandomizationFactor: defaultRandomizationFactor,
		Multiplier:          defaultMultiplier,
		MaxInterval:         defaultMaxInterval,
		MaxElapsedTime:      defaultMaxElapsedTime,
		Clock:               backoff.SystemClock,
	}
}
