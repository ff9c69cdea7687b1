// Package environment loads deployment values and executor configuration.
//
// Sources are layered with increasing priority:
//  1. built-in defaults
//  2. an optional YAML file
//  3. an optional .env file
//  4. process environment variables
//
// Keys are case-insensitive: ACCESS_TOKEN in the environment and
// access_token in YAML address the same value.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2"

	"github.com/opengovern/datacore"
)

// Values implements datacore.EnvironmentValues over a koanf instance.
type Values struct {
	k      *koanf.Koanf
	tokens oauth2.TokenSource
}

var _ datacore.EnvironmentValues = (*Values)(nil)

type loadOptions struct {
	yamlFile    string
	dotEnvFile  string
	envPrefix   string
	skipProcEnv bool
	overrides   map[string]any
	tokens      oauth2.TokenSource
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithYAMLFile loads path as YAML. A missing file is ignored.
func WithYAMLFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.yamlFile = path
	}
}

// WithDotEnvFile loads path as a .env file. A missing file is ignored.
func WithDotEnvFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.dotEnvFile = path
	}
}

// WithEnvPrefix only reads process variables starting with prefix; the
// prefix is stripped (DATACORE_BASE_URL -> base_url).
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithoutProcessEnv skips process environment variables.
func WithoutProcessEnv() LoadOption {
	return func(o *loadOptions) {
		o.skipProcEnv = true
	}
}

// WithOverrides applies values above every other source.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// WithTokenSource makes AccessToken come from ts instead of the loaded values.
func WithTokenSource(ts oauth2.TokenSource) LoadOption {
	return func(o *loadOptions) {
		o.tokens = ts
	}
}

// Load builds Values from the configured sources.
func Load(opts ...LoadOption) (*Values, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.yamlFile != "" {
		if err := k.Load(file.Provider(o.yamlFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.yamlFile, err)
		}
	}

	if o.dotEnvFile != "" {
		dotEnv, err := godotenv.Read(o.dotEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.dotEnvFile, err)
		}
		if len(dotEnv) > 0 {
			if err := k.Load(confmap.Provider(normalizeKeys(dotEnv, o.envPrefix), "."), nil); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", o.dotEnvFile, err)
			}
		}
	}

	if !o.skipProcEnv {
		prefix := o.envPrefix
		if err := k.Load(envprovider.Provider(prefix, ".", func(s string) string {
			return normalizeKey(strings.TrimPrefix(s, prefix))
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	if len(o.overrides) > 0 {
		overrides := make(map[string]any, len(o.overrides))
		for key, v := range o.overrides {
			overrides[normalizeKey(key)] = v
		}
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	return &Values{k: k, tokens: o.tokens}, nil
}

// FromMap builds Values from an in-memory map only.
func FromMap(values map[string]any) (*Values, error) {
	return Load(WithoutProcessEnv(), WithOverrides(values))
}

// Get returns the value for key, or an error wrapping datacore.ErrMissingValue.
func (v *Values) Get(key datacore.EnvironmentKey) (string, error) {
	if key == datacore.AccessToken && v.tokens != nil {
		tok, err := v.tokens.Token()
		if err != nil {
			return "", fmt.Errorf("token source: %w", err)
		}
		if tok.AccessToken == "" {
			return "", fmt.Errorf("token source returned empty token: %w", datacore.ErrMissingValue)
		}
		return tok.AccessToken, nil
	}

	name := normalizeKey(string(key))
	if !v.k.Exists(name) {
		return "", fmt.Errorf("%s: %w", key, datacore.ErrMissingValue)
	}
	s := v.k.String(name)
	if s == "" {
		return "", fmt.Errorf("%s is empty: %w", key, datacore.ErrMissingValue)
	}
	return s, nil
}

// Config unmarshals and validates the executor configuration.
func (v *Values) Config() (datacore.Config, error) {
	cfg := datacore.DefaultConfig()
	if err := v.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return datacore.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return datacore.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load for process start-up: a failure is a deployment defect.
func MustLoad(opts ...LoadOption) *Values {
	v, err := Load(opts...)
	if err != nil {
		panic(fmt.Errorf("environment: %w", err))
	}
	return v
}

func defaults() map[string]any {
	d := datacore.DefaultConfig()
	return map[string]any{
		"max_attempts":      d.MaxAttempts,
		"timeout":           d.Timeout.String(),
		"base_backoff":      time.Duration(0).String(),
		"max_backoff":       d.MaxBackoff.String(),
		"request_id_header": datacore.HeaderRequestID,
		"rate_burst":        d.RateBurst,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeKeys(in map[string]string, prefix string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if prefix != "" && !strings.HasPrefix(k, prefix) {
			continue
		}
		out[normalizeKey(strings.TrimPrefix(k, prefix))] = v
	}
	return out
}
