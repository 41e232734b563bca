package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")
	ErrUpstreamPermanent = errors.New("upstream returned an unusable response")
	ErrStoreIO           = errors.New("record store failure")
	ErrValidation        = errors.New("validation failed")
)

// IsRetryable reports whether err is worth retrying against the upstream.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamTransient)
}

// RetryAfterError wraps a retryable failure with a hint for when to try again.
type RetryAfterError struct {
	Err   error
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%v (retry after %s)", e.Err, e.After)
	}
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfter extracts the hint from err, or zero when there is none.
func RetryAfter(err error) time.Duration {
	var ra *RetryAfterError
	if errors.As(err, &ra) {
		return ra.After
	}
	return 0
}
