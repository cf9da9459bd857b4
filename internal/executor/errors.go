package executor

import (
	"context"
	"errors"
	"fmt"
)

// TransientError marks a failure that is worth retrying, such as a rate
// limit or a 5xx response from an upstream service.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so the executor retries the action with backoff.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should trigger a retry. Per-attempt
// timeouts count as transient; everything else is permanent.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// DependencyError explains why an action was skipped.
type DependencyError struct {
	Index  int
	Status Status
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency at index %d %s", e.Index, e.Status)
}
