package mock

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/opengovern/datacore"
)

// ErrConnection is the error returned for scripted failures without a status.
var ErrConnection = errors.New("mock: connection refused")

// Response is one scripted transport outcome. A zero Status with a nil Err
// is a 200 OK.
type Response struct {
	Status  int
	Body    []byte
	Headers map[string]string
	Err     error
}

// MockTransport is a datacore.Transport returning scripted outcomes. When the
// script runs out, it answers with SuccessBody, or with FailStatus when
// ShouldFailAlways is set. Safe for concurrent use.
type MockTransport struct {
	Script []Response

	ShouldFailAlways bool
	FailStatus       int // 0 means a connection error without status
	SuccessBody      []byte

	mu       sync.Mutex
	requests []datacore.TransportRequest
}

// NewScripted returns a transport replaying responses in order.
func NewScripted(responses ...Response) *MockTransport {
	return &MockTransport{Script: responses, SuccessBody: []byte(`{"success":true}`)}
}

func (m *MockTransport) Do(ctx context.Context, req *datacore.TransportRequest) (*datacore.TransportResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, cloneRequest(req))
	var next Response
	switch {
	case n < len(m.Script):
		next = m.Script[n]
	case m.ShouldFailAlways:
		next = Response{Status: m.FailStatus}
		if m.FailStatus == 0 {
			next.Err = ErrConnection
		}
	default:
		next = Response{Status: http.StatusOK, Body: m.SuccessBody}
	}
	m.mu.Unlock()

	return respond(next)
}

func respond(r Response) (*datacore.TransportResponse, error) {
	status := r.Status
	if status == 0 && r.Err == nil {
		status = http.StatusOK
	}

	if r.Err != nil || status < 200 || status > 299 {
		return nil, &datacore.TransportError{Status: status, Body: r.Body, Err: r.Err}
	}

	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return &datacore.TransportResponse{StatusCode: status, Headers: headers, Data: r.Body}, nil
}

// Calls returns the number of requests received so far.
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns copies of the requests received so far.
func (m *MockTransport) Requests() []datacore.TransportRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]datacore.TransportRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or false if none was received.
func (m *MockTransport) LastRequest() (datacore.TransportRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return datacore.TransportRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func cloneRequest(req *datacore.TransportRequest) datacore.TransportRequest {
	c := *req
	if req.Headers != nil {
		c.Headers = make(map[string]string, len(req.Headers))
		for k, v := range req.Headers {
			c.Headers[k] = v
		}
	}
	if req.Body != nil {
		c.Body = append([]byte(nil), req.Body...)
	}
	return c
}
