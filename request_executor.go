package datacore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opengovern/datacore/internal"
)

// Call describes one request against an Endpoint.
type Call struct {
	Endpoint Endpoint

	// ExtraHeaders customizes the headers before authentication is added.
	// It may block; ctx is the request context.
	ExtraHeaders func(ctx context.Context, b HeadersBuilder) HeadersBuilder

	// RequiresAuthentication adds the bearer token from AccessToken.
	RequiresAuthentication bool

	// ErrorMapper converts a classified failure into a caller-defined error.
	// Decoding errors and context errors are never passed to it.
	ErrorMapper func(err *RequestError) error
}

// Option configures a RequestExecutor.
type Option func(*RequestExecutor)

// WithLogger sets the logger used for request events.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *RequestExecutor) {
		e.logger = logger
	}
}

// WithMetrics records request counts and latency in m.
func WithMetrics(m *Metrics) Option {
	return func(e *RequestExecutor) {
		e.metrics = m
	}
}

// WithRequestIDHeader sets header to a fresh UUID on every request unless the
// caller already provided it.
func WithRequestIDHeader(header string) Option {
	return func(e *RequestExecutor) {
		e.requestIDHeader = header
	}
}

// WithUserAgent sets the User-Agent header unless the caller already provided it.
func WithUserAgent(userAgent string) Option {
	return func(e *RequestExecutor) {
		e.userAgent = userAgent
	}
}

// RequestExecutor resolves endpoints, assembles headers, performs exactly one
// transport call per request and classifies failures. It never retries; wrap
// calls with a RetryExecutor for that. Safe for concurrent use.
type RequestExecutor struct {
	transport       Transport
	values          EnvironmentValues
	logger          zerolog.Logger
	metrics         *Metrics
	requestIDHeader string
	userAgent       string
	newRequestID    func() string
}

// NewRequestExecutor returns an executor sending requests through transport.
// values must provide BaseURL, and AccessToken for authenticated calls.
func NewRequestExecutor(transport Transport, values EnvironmentValues, opts ...Option) *RequestExecutor {
	e := &RequestExecutor{
		transport:    transport,
		values:       values,
		logger:       zerolog.Nop(),
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post encodes body as JSON, sends it to call.Endpoint and decodes the
// response into T.
func Post[T any](ctx context.Context, e *RequestExecutor, call Call, body any) (T, error) {
	var zero T

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		payload = b
	}

	data, err := e.Do(ctx, http.MethodPost, call, nil, payload)
	if err != nil {
		return zero, err
	}
	return decode[T](data)
}

// Get sends params as a query string to call.Endpoint and decodes the
// response into T.
func Get[T any](ctx context.Context, e *RequestExecutor, call Call, params QueryParams) (T, error) {
	var zero T

	var query url.Values
	if params != nil {
		query = params.Values()
	}

	data, err := e.Do(ctx, http.MethodGet, call, query, nil)
	if err != nil {
		return zero, err
	}
	return decode[T](data)
}

// decode unmarshals data into T. An empty body decodes to the zero value.
func decode[T any](data []byte) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Do performs one request and returns the raw response body.
func (e *RequestExecutor) Do(ctx context.Context, method string, call Call, query url.Values, body []byte) ([]byte, error) {
	headers := e.buildHeaders(ctx, call, body != nil)

	service, err := e.ServiceURL(call.Endpoint)
	if err != nil {
		e.logger.Warn().Err(err).Str("method", method).Str("endpoint", call.Endpoint.String()).Msg("invalid service url")
		e.metrics.observeRequest(method, KindInvalidURL.String(), 0)
		return nil, e.mapError(call, &RequestError{Kind: KindInvalidURL, Err: err})
	}

	start := time.Now()
	resp, err := e.transport.Do(ctx, &TransportRequest{
		Method:  method,
		URL:     service,
		Query:   query,
		Headers: headers,
		Body:    body,
	})
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Debug().Err(ctxErr).Str("method", method).Str("url", service).Msg("request canceled")
			e.metrics.observeRequest(method, "canceled", elapsed)
			return nil, ctxErr
		}

		rerr := classifyErr(err)
		e.logger.Warn().
			Err(err).
			Str("method", method).
			Str("url", service).
			Str("kind", rerr.Kind.String()).
			Int("status", rerr.StatusCode).
			Dur("elapsed", elapsed).
			Msg("request failed")
		e.metrics.observeRequest(method, rerr.Kind.String(), elapsed)
		return nil, e.mapError(call, rerr)
	}

	e.logger.Debug().
		Str("method", method).
		Str("url", service).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("request completed")
	e.metrics.observeRequest(method, outcomeOK, elapsed)
	return resp.Data, nil
}

// ServiceURL resolves endpoint against the BaseURL environment value.
// A missing BaseURL panics with a *ConfigError.
func (e *RequestExecutor) ServiceURL(endpoint Endpoint) (string, error) {
	base := MustGet(e.values, BaseURL)
	return internal.JoinServiceURL(base, endpoint.API, endpoint.Path)
}

func (e *RequestExecutor) buildHeaders(ctx context.Context, call Call, hasBody bool) map[string]string {
	builder := NewHeadersBuilder(e.values)

	if call.ExtraHeaders != nil {
		builder = call.ExtraHeaders(ctx, builder)
	}

	if call.RequiresAuthentication {
		builder = builder.AddAuthorization()
	}

	if e.requestIDHeader != "" && !builder.Has(e.requestIDHeader) {
		builder = builder.Add(e.requestIDHeader, e.newRequestID())
	}
	if e.userAgent != "" && !builder.Has("User-Agent") {
		builder = builder.Add("User-Agent", e.userAgent)
	}
	if !builder.Has(HeaderAccept) {
		builder = builder.Add(HeaderAccept, "application/json")
	}
	if hasBody && !builder.Has(HeaderContentType) {
		builder = builder.Add(HeaderContentType, "application/json")
	}

	return builder.Build()
}

func (e *RequestExecutor) mapError(call Call, rerr *RequestError) error {
	if call.ErrorMapper == nil {
		return rerr
	}
	if mapped := call.ErrorMapper(rerr); mapped != nil {
		return mapped
	}
	return rerr
}
