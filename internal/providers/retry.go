package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxRetries bounds the retry loop shared by every provider.
const maxRetries = 3

type rateLimitError struct {
	retryable bool
}

func (e *rateLimitError) Error() string { return "rate limited" }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	status  int
	message string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.status, e.message)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimited reports whether the provider rejected the call for quota reasons.
func IsRateLimited(err error) bool {
	var re *rateLimitError
	return errors.As(err, &re)
}

// classifyStatus turns a non-2xx HTTP status into the typed errors the
// retry loop understands.
func classifyStatus(status int, body string) error {
	switch {
	case status == 429:
		return &rateLimitError{retryable: true}
	case status == 401 || status == 403:
		return &authError{message: body}
	case status >= 500:
		return &serverError{status: status, message: body}
	default:
		return fmt.Errorf("API error (status %d): %s", status, body)
	}
}

// backoffUnit is scaled by 2^attempt between retries. Tests shrink it.
var backoffUnit = time.Second

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Don't retry auth errors
		if IsAuthError(lastErr) {
			return lastErr
		}

		var rl *rateLimitError
		var se *serverError
		if !errors.As(lastErr, &rl) && !errors.As(lastErr, &se) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * backoffUnit
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
