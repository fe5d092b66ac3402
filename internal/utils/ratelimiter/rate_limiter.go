package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
	"golang.org/x/xerrors"
)

type (
	// RateLimiter throttles outgoing requests. A nil RateLimiter imposes no limit.
	RateLimiter struct {
		limiter *rate.Limiter
	}
)

// New returns a limiter that allows up to rps requests per second, with a burst of rps.
// Zero means unlimited.
func New(rps int) *RateLimiter {
	if rps <= 0 {
		return nil
	}

	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), rps)}
}

// Allow reports whether a request may be sent now.
func (l *RateLimiter) Allow() bool {
	if l == nil {
		return true
	}

	return l.limiter.Allow()
}

// Wait blocks until a request may be sent or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return xerrors.Errorf("failed to wait for rate limiter: %w", err)
	}

	return nil
}

// Limit returns the configured requests per second, or zero when unlimited.
func (l *RateLimiter) Limit() int {
	if l == nil {
		return 0
	}

	return int(l.limiter.Limit())
}
