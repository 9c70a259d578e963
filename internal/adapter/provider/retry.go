// Package provider holds shared plumbing for the external embedding and
// generation services.
package provider

import (
	"context"
	"errors"
	"time"
)

// DefaultBackoff is the pause before the single retry of a transient
// provider failure.
const DefaultBackoff = 2 * time.Second

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks an error as a transient provider failure (rate limit,
// timeout, 5xx) eligible for the single automatic retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether the error was marked with Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Retry runs call and, if it fails with a transient error, retries exactly
// once after the backoff. Non-transient errors and context cancellation are
// returned immediately; configuration and input errors are never retried
// because callers never mark them transient.
func Retry(ctx context.Context, backoff time.Duration, call func() error) error {
	err := call()
	if err == nil || !IsTransient(err) {
		return err
	}

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return ctx.Err()
	}

	return call()
}
