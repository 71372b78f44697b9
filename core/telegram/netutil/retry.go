package netutil

import (
	"errors"
	"time"

	tele "gopkg.in/telebot.v4"
)

// maxFloodWait caps how long a sender honours Telegram's retry_after.
const maxFloodWait = 30 * time.Second

// ShouldRetry reports whether a failed call is worth repeating: timeouts,
// refused dials, Telegram flood control and 5xx gateway errors.
// Validation failures such as "chat not found" are never retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	switch Classify(err) {
	case "timeout", "dial", "http_5xx":
		return true
	}
	return false
}

// RetryDelay returns how long to wait before the next attempt. Flood errors
// carry their own delay; everything else backs off linearly from base.
func RetryDelay(err error, attempt int, base time.Duration) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return min(time.Duration(flood.RetryAfter)*time.Second, maxFloodWait)
	}
	return base * time.Duration(attempt)
}
