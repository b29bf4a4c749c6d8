package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cocoonstack/orka/types"
)

// DoWithRetry retries fn with exponential backoff for transient errors,
// at most maxRetries times after the first attempt.
func DoWithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return zero, err
		}
		if i < maxRetries {
			backoff := BaseBackoff * time.Duration(1<<i)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return zero, lastErr
}

// IsRetryable returns true for transient errors (connection failures, 5xx, 429).
func IsRetryable(err error) bool {
	var ae *types.APIError
	if errors.As(err, &ae) {
		return ae.Code >= 500 || ae.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Local failures never improve on retry.
	if errors.Is(err, types.ErrMalformedResponse) ||
		errors.Is(err, types.ErrAuthentication) ||
		errors.Is(err, types.ErrAuthorization) {
		return false
	}
	// Anything else is a connection-level failure.
	return true
}
