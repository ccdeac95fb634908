package providers

import (
	"testing"
	"time"
)

// fastRetries shrinks the back-off for the duration of a test.
func fastRetries(t *testing.T) {
	t.Helper()
	orig := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = orig })
}
