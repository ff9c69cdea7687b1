// client.go
// ---------
// Client is the main entry point for data sources. It owns a RequestExecutor
// configured from Config and hands out a fresh RetryExecutor per logical
// operation, so retry counters are never shared between unrelated requests.
package datacore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Client struct {
	executor *RequestExecutor
	config   Config
	logger   zerolog.Logger
	metrics  *Metrics
}

// NewClient validates cfg and builds a Client over transport. opts configure
// the underlying RequestExecutor; its logger and metrics are shared with the
// retry executors the client creates.
func NewClient(transport Transport, values EnvironmentValues, cfg Config, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport must be set")
	}
	if values == nil {
		return nil, fmt.Errorf("environment values must be set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	var base []Option
	if cfg.RequestIDHeader != "" {
		base = append(base, WithRequestIDHeader(cfg.RequestIDHeader))
	}
	if cfg.UserAgent != "" {
		base = append(base, WithUserAgent(cfg.UserAgent))
	}
	executor := NewRequestExecutor(transport, values, append(base, opts...)...)

	return &Client{
		executor: executor,
		config:   cfg,
		logger:   executor.logger,
		metrics:  executor.metrics,
	}, nil
}

// Executor returns the underlying RequestExecutor for calls that must not be retried.
func (c *Client) Executor() *RequestExecutor {
	return c.executor
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// NewRetryExecutor returns a RetryExecutor configured from the client's
// backoff settings, logger and metrics.
func (c *Client) NewRetryExecutor() *RetryExecutor {
	return NewRetryExecutor(
		WithRetryLogger(c.logger),
		WithRetryMetrics(c.metrics),
		WithBackoff(c.config.BaseBackoff, c.config.MaxBackoff),
	)
}

// GetWithRetry performs Get under a fresh RetryExecutor bounded by Config.MaxAttempts.
func GetWithRetry[T any](ctx context.Context, c *Client, call Call, params QueryParams) (T, error) {
	return Execute(ctx, c.NewRetryExecutor(), c.config.MaxAttempts, func(ctx context.Context) (T, error) {
		return Get[T](ctx, c.executor, call, params)
	})
}

// PostWithRetry performs Post under a fresh RetryExecutor bounded by Config.MaxAttempts.
func PostWithRetry[T any](ctx context.Context, c *Client, call Call, body any) (T, error) {
	return Execute(ctx, c.NewRetryExecutor(), c.config.MaxAttempts, func(ctx context.Context) (T, error) {
		return Post[T](ctx, c.executor, call, body)
	})
}
