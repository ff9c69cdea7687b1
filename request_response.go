package datacore

import (
	"fmt"
	"net/url"
	"time"
)

// TransportRequest is what the executor hands to a Transport.
type TransportRequest struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// TransportResponse is a successful (2xx) response.
type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Data       []byte
}

// TransportError is returned by transports for non-2xx responses, or for
// failures that never produced a response (Status == 0).
type TransportError struct {
	Status     int
	Body       []byte
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) HTTPStatus() (int, bool) {
	return e.Status, e.Status != 0
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("transport error: status %d: %v", e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("transport error: status %d", e.Status)
	case e.Err != nil:
		return "transport error: " + e.Err.Error()
	default:
		return "transport error"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetryAfterHint returns the server supplied Retry-After delay, if any.
func (e *TransportError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}
