package cache

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrNetwork is returned when a remote backend cannot be reached.
var ErrNetwork = errors.New("network error")

// RetryableError marks a backend failure that may succeed on another attempt,
// such as a Redis timeout.
type RetryableError struct{ Err error }

// Retryable wraps err so RetryWithBackoff tries again. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err or anything it wraps is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryableNet wraps net.Error values (timeouts, refused connections) as
// retryable and passes everything else through.
func retryableNet(err error) error {
	var ne net.Error
	if errors.As(err, &ne) {
		return Retryable(err)
	}
	return err
}

// Backoff settings for remote backends. retryDelay is shortened in tests.
var retryDelay = 100 * time.Millisecond

const retryAttempts = 3

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// retryable, or has been called retryAttempts times. The delay between calls
// starts at retryDelay and doubles. A cancelled ctx ends the wait early.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
