package internal

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter converts a Retry-After style header value into a delay.
// Accepted forms: delay in seconds ("120"), an HTTP date, or a Go duration
// string such as "1s" or "6m0s" which some APIs send. Unparsable or past
// values yield 0.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if sec, err := strconv.Atoi(value); err == nil {
		if sec <= 0 {
			return 0
		}
		return time.Duration(sec) * time.Second
	}

	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0
		}
		return d
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
