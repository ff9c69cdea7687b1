package datacore

import "errors"

// EnvironmentKey names a deployment value.
type EnvironmentKey string

const (
	AccessToken EnvironmentKey = "ACCESS_TOKEN"
	BaseURL     EnvironmentKey = "BASE_URL"
)

// ErrMissingValue is returned by EnvironmentValues implementations for absent keys.
var ErrMissingValue = errors.New("missing environment value")

// MustGet reads key from values and panics with a *ConfigError when it is
// missing or empty.
func MustGet(values EnvironmentValues, key EnvironmentKey) string {
	if values == nil {
		panic(&ConfigError{Key: key, Err: errors.New("no environment values provider")})
	}
	v, err := values.Get(key)
	if err != nil {
		panic(&ConfigError{Key: key, Err: err})
	}
	if v == "" {
		panic(&ConfigError{Key: key, Err: ErrMissingValue})
	}
	return v
}

// StaticValues is an in-memory EnvironmentValues.
type StaticValues map[EnvironmentKey]string

func (s StaticValues) Get(key EnvironmentKey) (string, error) {
	v, ok := s[key]
	if !ok || v == "" {
		return "", ErrMissingValue
	}
	return v, nil
}
