package datacore

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories a request can end in.
type ErrorKind int

const (
	KindFail ErrorKind = iota
	KindInvalidURL
	KindUnauthorized
	KindNotFound
	KindStatusCode
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindStatusCode:
		return "status_code"
	default:
		return "fail"
	}
}

// Sentinels for errors.Is checks against a *RequestError.
var (
	ErrFail         = &RequestError{Kind: KindFail}
	ErrInvalidURL   = &RequestError{Kind: KindInvalidURL}
	ErrUnauthorized = &RequestError{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized}
	ErrNotFound     = &RequestError{Kind: KindNotFound, StatusCode: http.StatusNotFound}
)

// RequestError is the domain error produced when a request fails.
// StatusCode is zero for KindFail and KindInvalidURL.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

// StatusCode returns a *RequestError usable as an errors.Is target for one
// concrete HTTP status.
func StatusCode(code int) *RequestError {
	return Classify(&code)
}

// Classify maps an optional HTTP status code to a *RequestError. It is the
// only place in the module where status codes are turned into kinds.
func Classify(statusCode *int) *RequestError {
	if statusCode == nil {
		return &RequestError{Kind: KindFail}
	}

	switch *statusCode {
	case http.StatusUnauthorized:
		return &RequestError{Kind: KindUnauthorized, StatusCode: *statusCode}
	case http.StatusNotFound:
		return &RequestError{Kind: KindNotFound, StatusCode: *statusCode}
	default:
		return &RequestError{Kind: KindStatusCode, StatusCode: *statusCode}
	}
}

// classifyErr extracts a status code from err, when the transport exposes one,
// and classifies it. The original error is kept as the cause.
func classifyErr(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	var sc StatusCoder
	var rerr *RequestError
	if errors.As(err, &sc) {
		if code, ok := sc.HTTPStatus(); ok {
			rerr = Classify(&code)
		}
	}
	if rerr == nil {
		rerr = Classify(nil)
	}
	rerr.Err = err
	return rerr
}

func (e *RequestError) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidURL:
		msg = "request error: invalid url"
	case KindUnauthorized:
		msg = "request error: unauthorized (401)"
	case KindNotFound:
		msg = "request error: not found (404)"
	case KindStatusCode:
		msg = fmt.Sprintf("request error: status code %d", e.StatusCode)
	default:
		msg = "request error: fail"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on StatusCode when the target carries one.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() (int, bool)
}

// MappingError reports that an entity could not be converted to or from its
// wire representation.
type MappingError struct {
	Stage  string // "request" or "response"
	Field  string
	Reason string
	Err    error
}

// NewMappingError creates a MappingError for the given stage and field.
func NewMappingError(stage, field, reason string) *MappingError {
	return &MappingError{Stage: stage, Field: field, Reason: reason}
}

func (e *MappingError) Error() string {
	msg := "mapping error"
	if e.Stage != "" {
		msg += " (" + e.Stage + ")"
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// ConfigError reports a missing environment value. It signals a deployment
// defect and is raised as a panic by MustGet.
type ConfigError struct {
	Key EnvironmentKey
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("environment value with key %s not found: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("environment value with key %s not found", e.Key)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
