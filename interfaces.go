package datacore

import (
	"context"
	"net/url"
)

// Transport defines the black-box HTTP engine the executor calls through.
// Implementations must report non-2xx responses as an error exposing the
// status code (see StatusCoder); TLS, pooling and redirects are theirs.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// EnvironmentValues supplies deployment values such as the base URL and the
// access token. A missing key is reported as an error.
type EnvironmentValues interface {
	Get(key EnvironmentKey) (string, error)
}

// QueryParams is implemented by GET parameter models.
type QueryParams interface {
	Values() url.Values
}

// QueryMap is a QueryParams backed by a plain map.
type QueryMap map[string]string

func (m QueryMap) Values() url.Values {
	if len(m) == 0 {
		return nil
	}
	v := make(url.Values, len(m))
	for k, val := range m {
		v.Set(k, val)
	}
	return v
}

// Endpoint identifies a remote operation independently of the base URL.
type Endpoint struct {
	API  string
	Path string
}

func (e Endpoint) String() string {
	return e.API + PathSeparator + e.Path
}
