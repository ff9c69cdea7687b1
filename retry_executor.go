package datacore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// RetryOption configures a RetryExecutor.
type RetryOption func(*RetryExecutor)

// WithRetryLogger sets the logger used for intermediate and final failures.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(r *RetryExecutor) {
		r.logger = logger
	}
}

// WithRetryMetrics records retried and exhausted sequences in m.
func WithRetryMetrics(m *Metrics) RetryOption {
	return func(r *RetryExecutor) {
		r.metrics = m
	}
}

// WithBackoff waits base * 2^(n-1) before the n-th retry, capped at max
// (0 means no cap). A Retry-After hint carried by the failure raises the
// delay, still subject to the cap. Without this option retries are immediate.
func WithBackoff(base, max time.Duration) RetryOption {
	return func(r *RetryExecutor) {
		if base >= 0 {
			r.baseBackoff = base
		}
		if max >= 0 {
			r.maxBackoff = max
		}
	}
}

// RetryExecutor re-runs a failing operation until it succeeds or its failure
// count reaches maxAttempts. The attempt counter belongs to the executor;
// concurrent Execute calls on one instance run one after another. Use one
// executor per logical operation: calling Execute on the same executor from
// inside op deadlocks.
type RetryExecutor struct {
	seq      sync.Mutex
	attempts atomic.Int32

	logger      zerolog.Logger
	metrics     *Metrics
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewRetryExecutor(opts ...RetryOption) *RetryExecutor {
	r := &RetryExecutor{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts returns the current failure count of the running sequence. It is
// 0 whenever no sequence is in progress.
func (r *RetryExecutor) Attempts() int {
	return int(r.attempts.Load())
}

// Execute runs op until it succeeds or fails maxAttempts+1 times in total,
// returning the last result. Only the final error is returned. A failure
// observed after ctx is done ends the sequence without being counted.
func Execute[T any](ctx context.Context, r *RetryExecutor, maxAttempts int, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	r.seq.Lock()
	defer r.seq.Unlock()
	defer r.restore()

	for {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return zero, err
		}

		attempt := r.increment()
		if attempt >= maxAttempts {
			r.metrics.incExhausted()
			r.logger.Error().Err(err).Int("attempts", attempt).Msg("retry attempts exhausted")
			return zero, err
		}

		r.metrics.incRetry()
		r.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("operation failed, retrying")

		if werr := r.wait(ctx, attempt, err); werr != nil {
			return zero, werr
		}
	}
}

func (r *RetryExecutor) increment() int {
	return int(r.attempts.Add(1))
}

func (r *RetryExecutor) restore() {
	r.attempts.Store(0)
}

type retryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// backoff returns the delay before the retry following the given attempt.
func (r *RetryExecutor) backoff(attempt int, err error) time.Duration {
	if r.baseBackoff <= 0 {
		return 0
	}

	delay := r.baseBackoff
	for i := 1; i < attempt && (r.maxBackoff <= 0 || delay < r.maxBackoff); i++ {
		if delay > time.Duration(1<<62)/2 {
			break
		}
		delay *= 2
	}

	var hinter retryAfterHinter
	if errors.As(err, &hinter) {
		if hint := hinter.RetryAfterHint(); hint > delay {
			delay = hint
		}
	}

	if r.maxBackoff > 0 && delay > r.maxBackoff {
		delay = r.maxBackoff
	}
	return delay
}

func (r *RetryExecutor) wait(ctx context.Context, attempt int, err error) error {
	delay := r.backoff(attempt, err)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
