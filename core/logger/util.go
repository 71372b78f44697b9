package logger

import (
	"strings"
	"time"
)

// MaskPhone keeps the country prefix and last three digits of a phone number.
// Values of seven runes or fewer are fully masked.
func MaskPhone(phone string) string {
	r := []rune(strings.TrimSpace(phone))
	if len(r) <= 7 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:5]) + strings.Repeat("*", len(r)-8) + string(r[len(r)-3:])
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
