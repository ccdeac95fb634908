package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryBaseDelay is the first back-off interval; it doubles per attempt.
var retryBaseDelay = time.Second

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

func isRetryable(err error) bool {
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// classifyStatus maps an HTTP status to the retry taxonomy. It returns nil
// for 2xx.
func classifyStatus(code int, body string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 429:
		return &rateLimitError{}
	case code == 401 || code == 403:
		return &authError{message: body}
	case code >= 500:
		return &serverError{statusCode: code, body: body}
	default:
		return fmt.Errorf("API error (status %d): %s", code, body)
	}
}

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := retryBaseDelay << uint(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
