// rate_limiter.go
// ---------------
// RateLimitedTransport throttles requests on the client side. It combines a
// local token bucket with what the server reports: after a 429 carrying a
// Retry-After delay, or a response advertising x-ratelimit-remaining: 0,
// every request waits until the reset time has passed.
package adapters

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/opengovern/datacore"
)

type RateLimitedTransport struct {
	next    datacore.Transport
	limiter *rate.Limiter

	mu           sync.Mutex
	blockedUntil time.Time
	now          func() time.Time
}

// NewRateLimitedTransport limits next to requestsPerSecond with the given
// burst. A non-positive rate disables the local bucket; server reported
// limits are still honoured.
func NewRateLimitedTransport(next datacore.Transport, requestsPerSecond float64, burst int) *RateLimitedTransport {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

func (t *RateLimitedTransport) Do(ctx context.Context, req *datacore.TransportRequest) (*datacore.TransportResponse, error) {
	if delay := t.delayBeforeNextRequest(); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := t.next.Do(ctx, req)
	if err == nil && resp != nil {
		t.applyQuotaHeaders(resp.Headers)
	}

	var terr *datacore.TransportError
	if errors.As(err, &terr) && terr.Status == http.StatusTooManyRequests && terr.RetryAfter > 0 {
		t.block(terr.RetryAfter)
	}
	return resp, err
}

// delayBeforeNextRequest returns how long to wait before a request may be
// sent because of a server reported limit.
func (t *RateLimitedTransport) delayBeforeNextRequest() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.blockedUntil.IsZero() {
		return 0
	}
	if d := t.blockedUntil.Sub(t.now()); d > 0 {
		return d
	}
	t.blockedUntil = time.Time{}
	return 0
}

// applyQuotaHeaders blocks until x-ratelimit-reset (unix seconds) once the
// server reports no remaining requests in the current window.
func (t *RateLimitedTransport) applyQuotaHeaders(headers map[string]string) {
	if headers["x-ratelimit-remaining"] != "0" {
		return
	}
	reset, err := strconv.ParseInt(headers["x-ratelimit-reset"], 10, 64)
	if err != nil {
		return
	}
	if d := time.Unix(reset, 0).Sub(t.now()); d > 0 {
		t.block(d)
	}
}

func (t *RateLimitedTransport) block(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	until := t.now().Add(d)
	if until.After(t.blockedUntil) {
		t.blockedUntil = until
	}
}

// NewTransport builds the default transport for cfg: resty with cfg.Timeout,
// wrapped in a RateLimitedTransport when cfg.RateLimit is set.
func NewTransport(cfg datacore.Config, logger zerolog.Logger) datacore.Transport {
	var t datacore.Transport = NewRestyTransport(cfg.Timeout, logger)
	if cfg.RateLimit > 0 {
		t = NewRateLimitedTransport(t, cfg.RateLimit, cfg.RateBurst)
	}
	return t
}
