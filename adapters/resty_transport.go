package adapters

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/opengovern/datacore"
)

// RestyTransport implements datacore.Transport on go-resty. Resty's own
// retry mechanism stays disabled; retries belong to datacore.RetryExecutor.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a resty-backed transport with the given timeout.
func NewRestyTransport(timeout time.Duration, logger zerolog.Logger) *RestyTransport {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(&restyLogger{logger: logger})
	return &RestyTransport{client: client}
}

// NewRestyTransportWithClient wraps an existing resty client.
func NewRestyTransportWithClient(client *resty.Client) *RestyTransport {
	return &RestyTransport{client: client}
}

func (t *RestyTransport) Do(ctx context.Context, req *datacore.TransportRequest) (*datacore.TransportResponse, error) {
	r := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)

	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, &datacore.TransportError{Err: err}
	}

	return toResponse(resp.StatusCode(), resp.Header(), resp.Body())
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msgf(format, v...)
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msgf(format, v...)
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msgf(format, v...)
}
