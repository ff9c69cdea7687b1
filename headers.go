package datacore

import "net/http"

// HeadersBuilder accumulates request headers. Every method returns a new
// builder; a builder is never mutated after creation, so partially built
// values can be shared between goroutines.
type HeadersBuilder struct {
	values  EnvironmentValues
	headers map[string]string
}

// NewHeadersBuilder returns an empty builder reading the access token from values.
func NewHeadersBuilder(values EnvironmentValues) HeadersBuilder {
	return HeadersBuilder{values: values}
}

// Add returns a builder with key set to value. Keys are stored in canonical
// form, so an existing key differing only in case is overwritten.
func (b HeadersBuilder) Add(key, value string) HeadersBuilder {
	key = http.CanonicalHeaderKey(key)
	headers := make(map[string]string, len(b.headers)+1)
	for k, v := range b.headers {
		headers[k] = v
	}
	headers[key] = value

	return HeadersBuilder{values: b.values, headers: headers}
}

// AddAuthorization adds "Authorization: Bearer <token>" using the AccessToken
// environment value. It panics with a *ConfigError if the token is missing.
func (b HeadersBuilder) AddAuthorization() HeadersBuilder {
	token := MustGet(b.values, AccessToken)
	return b.Add(HeaderAuthorization, "Bearer "+token)
}

// Has reports whether key has been set.
func (b HeadersBuilder) Has(key string) bool {
	_, ok := b.headers[http.CanonicalHeaderKey(key)]
	return ok
}

// Build returns a copy of the accumulated headers keyed by canonical name.
func (b HeadersBuilder) Build() map[string]string {
	out := make(map[string]string, len(b.headers))
	for k, v := range b.headers {
		out[k] = v
	}
	return out
}
