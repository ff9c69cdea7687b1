package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opengovern/datacore"
	"github.com/opengovern/datacore/internal"
)

// HTTPTransport implements datacore.Transport on net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with a pooled client and the given
// per-request timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewHTTPTransportWithClient wraps an existing client.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, req *datacore.TransportRequest) (*datacore.TransportResponse, error) {
	target, err := withQuery(req.URL, req.Query)
	if err != nil {
		return nil, &datacore.TransportError{Err: err}
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &datacore.TransportError{Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &datacore.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &datacore.TransportError{Err: err}
	}

	return toResponse(resp.StatusCode, resp.Header, data)
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// toResponse applies response validation shared by the transports: 2xx is a
// success, anything else a *datacore.TransportError carrying the status.
func toResponse(status int, header http.Header, data []byte) (*datacore.TransportResponse, error) {
	if status < 200 || status > 299 {
		return nil, &datacore.TransportError{
			Status:     status,
			Body:       data,
			RetryAfter: internal.ParseRetryAfter(header.Get("Retry-After"), time.Now()),
		}
	}

	headers := make(map[string]string, len(header))
	for k, vals := range header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	return &datacore.TransportResponse{
		StatusCode: status,
		Headers:    headers,
		Data:       data,
	}, nil
}
