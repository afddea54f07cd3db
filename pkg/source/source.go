package source

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/atomtree/pkg/snapshot"
)

// Emit receives decoded snapshots. Returning an error stops the source.
type Emit func(ctx context.Context, s snapshot.Snapshot) error

// Source produces snapshots until ctx is canceled.
type Source interface {
	Run(ctx context.Context, emit Emit) error
}

// =============================================================================
// Retry
// =============================================================================

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls RetryWithBackoff.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff tries 5 times starting at one second, doubling up to 30s.
var DefaultBackoff = Backoff{Attempts: 5, Initial: time.Second, Max: 30 * time.Second}

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, or the attempts are used up.
func RetryWithBackoff(ctx context.Context, b Backoff, fn func() error) error {
	if b.Attempts < 1 {
		b.Attempts = 1
	}
	delay := b.Initial
	var lastErr error

	for i := 0; i < b.Attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < b.Attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
				if b.Max > 0 && delay > b.Max {
					delay = b.Max
				}
			}
		}
	}
	return lastErr
}
