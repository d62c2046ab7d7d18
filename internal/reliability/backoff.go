// Package reliability holds retry helpers for the chat client.
package reliability

import (
	"net/http"
	"time"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryableDial reports whether a failed WebSocket dial should be retried.
// A nil response means the server could not be reached at all.
func IsRetryableDial(resp *http.Response) bool {
	if resp == nil {
		return true
	}
	return IsRetryableHTTPStatus(resp.StatusCode)
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}

// Backoff hands out successive ExponentialBackoff delays. The zero value is
// not usable; set Base and Cap.
type Backoff struct {
	Base    time.Duration
	Cap     time.Duration
	attempt int
}

func (b *Backoff) Next() time.Duration {
	d := ExponentialBackoff(b.attempt, b.Base, b.Cap)
	b.attempt++
	return d
}

// Reset starts the sequence over after a successful attempt.
func (b *Backoff) Reset() {
	b.attempt = 0
}

func (b *Backoff) Attempts() int {
	return b.attempt
}
