package datacore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	plain := errors.New("boom")
	hinted := fmt.Errorf("wrapped: %w", &TransportError{Status: 429, RetryAfter: 7 * time.Second})

	tests := []struct {
		name    string
		base    time.Duration
		max     time.Duration
		attempt int
		err     error
		want    time.Duration
	}{
		{"disabled", 0, 0, 1, plain, 0},
		{"disabled ignores hint", 0, 0, 1, hinted, 0},
		{"first retry", time.Second, 0, 1, plain, time.Second},
		{"doubles", time.Second, 0, 3, plain, 4 * time.Second},
		{"capped", time.Second, 3 * time.Second, 5, plain, 3 * time.Second},
		{"hint raises delay", time.Second, 0, 1, hinted, 7 * time.Second},
		{"hint below delay", 10 * time.Second, 0, 1, hinted, 10 * time.Second},
		{"hint capped", time.Second, 5 * time.Second, 1, hinted, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetryExecutor(WithBackoff(tt.base, tt.max))
			assert.Equal(t, tt.want, r.backoff(tt.attempt, tt.err))
		})
	}
}

func TestBackoffLargeAttemptDoesNotOverflow(t *testing.T) {
	r := NewRetryExecutor(WithBackoff(time.Second, 0))
	assert.Positive(t, r.backoff(200, errors.New("boom")))
}
