package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), "timeout"},
		{"dns", &net.DNSError{Err: "no such host", Name: "backend"}, "dns"},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{"url timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, "timeout"},
		{"status in message", errors.New("telegram: bad gateway (502)"), "http_5xx"},
		{"other", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("%s: Classify() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(nil) {
		t.Fatal("nil error must not be retried")
	}
	if !ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatal("dial errors are retryable")
	}
	if ShouldRetry(errors.New("bad request")) {
		t.Fatal("plain errors are not retryable")
	}
	if !ShouldRetry(errors.New("telegram: bad gateway (502)")) {
		t.Fatal("gateway errors are retryable")
	}
	if !ShouldRetry(tele.FloodError{RetryAfter: 3}) {
		t.Fatal("flood errors are retryable")
	}
}

func TestRetryDelay(t *testing.T) {
	if got := RetryDelay(errors.New("x"), 3, time.Second); got != 3*time.Second {
		t.Fatalf("linear backoff = %v", got)
	}
	if got := RetryDelay(tele.FloodError{RetryAfter: 2}, 1, time.Second); got != 2*time.Second {
		t.Fatalf("flood delay = %v", got)
	}
	if got := RetryDelay(tele.FloodError{RetryAfter: 600}, 1, time.Second); got != maxFloodWait {
		t.Fatalf("flood delay must be capped, got %v", got)
	}
}
