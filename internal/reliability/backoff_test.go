package reliability

import (
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{403, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		got := IsRetryableHTTPStatus(tc.code)
		if got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsRetryableDial(t *testing.T) {
	if !IsRetryableDial(nil) {
		t.Fatalf("IsRetryableDial(nil) = false, want true")
	}
	if IsRetryableDial(&http.Response{StatusCode: http.StatusBadRequest}) {
		t.Fatalf("IsRetryableDial(400) = true, want false")
	}
	if !IsRetryableDial(&http.Response{StatusCode: http.StatusServiceUnavailable}) {
		t.Fatalf("IsRetryableDial(503) = false, want true")
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := ExponentialBackoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(2, base, capDur); got != 400*time.Millisecond {
		t.Fatalf("attempt 2 = %v, want %v", got, 400*time.Millisecond)
	}
	if got := ExponentialBackoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}

func TestBackoffSequenceAndReset(t *testing.T) {
	b := &Backoff{Base: time.Second, Cap: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("Next() #%d = %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != 4 {
		t.Fatalf("Attempts() = %d, want 4", b.Attempts())
	}
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Fatalf("Next() after Reset = %v, want %v", got, time.Second)
	}
}
