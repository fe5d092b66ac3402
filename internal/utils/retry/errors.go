package retry

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type (
	// RetryableError marks a transient failure, e.g. a dropped connection to the node.
	RetryableError struct {
		Err error
	}

	// RateLimitError marks a failure caused by the remote end throttling us.
	RateLimitError struct {
		Err error
	}
)

var (
	_ errors.Wrapper = (*RetryableError)(nil)
	_ errors.Wrapper = (*RateLimitError)(nil)
)

func Retryable(err error) error {
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func RateLimit(err error) error {
	return &RateLimitError{Err: err}
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}
