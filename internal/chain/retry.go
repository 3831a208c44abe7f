package chain

import (
	"context"
	"strings"
	"time"
)

const (
	maxAttempts  = 3
	firstBackoff = 200 * time.Millisecond
)

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// withRetry runs fn with a small backoff, doubled after rate-limit replies.
// Only rate-limit failures are retried; a revert or decode error is final.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := firstBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRateLimitError(err) || attempt == maxAttempts {
			break
		}
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
	return lastErr
}
