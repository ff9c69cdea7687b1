package datacore

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersBuilderAddAndOverwrite(t *testing.T) {
	base := NewHeadersBuilder(nil).Add("A", "1").Add("B", "2")
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, base.Build())

	overwritten := base.Add("A", "3")
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, overwritten.Build())

	// the original builder is untouched
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, base.Build())
}

func TestHeadersBuilderEmpty(t *testing.T) {
	built := NewHeadersBuilder(nil).Build()
	assert.NotNil(t, built)
	assert.Empty(t, built)
}

func TestHeadersBuilderBuildReturnsCopy(t *testing.T) {
	b := NewHeadersBuilder(nil).Add("A", "1")

	built := b.Build()
	built["A"] = "changed"
	built["C"] = "new"

	assert.Equal(t, map[string]string{"A": "1"}, b.Build())
}

func TestHeadersBuilderBranching(t *testing.T) {
	base := NewHeadersBuilder(nil).Add("Shared", "yes")

	left := base.Add("Side", "left")
	right := base.Add("Side", "right")

	assert.Equal(t, "left", left.Build()["Side"])
	assert.Equal(t, "right", right.Build()["Side"])
	assert.False(t, base.Has("Side"))
}

func TestHeadersBuilderConcurrentUse(t *testing.T) {
	base := NewHeadersBuilder(nil).Add("Shared", "yes")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			built := base.Add("N", string(rune('a'+i%26))).Build()
			assert.Equal(t, "yes", built["Shared"])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, map[string]string{"Shared": "yes"}, base.Build())
}

func TestHeadersBuilderAddAuthorization(t *testing.T) {
	values := StaticValues{AccessToken: "secret-token"}

	built := NewHeadersBuilder(values).Add("X-Custom", "v").AddAuthorization().Build()

	assert.Equal(t, "Bearer secret-token", built[HeaderAuthorization])
	assert.Equal(t, "v", built["X-Custom"])
}

func TestHeadersBuilderAddAuthorizationMissingToken(t *testing.T) {
	tests := []struct {
		name   string
		values EnvironmentValues
	}{
		{"no provider", nil},
		{"missing key", StaticValues{BaseURL: "https://api.x.com"}},
		{"empty token", StaticValues{AccessToken: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")

				err, ok := r.(error)
				require.True(t, ok)

				var cfgErr *ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, AccessToken, cfgErr.Key)
			}()

			NewHeadersBuilder(tt.values).AddAuthorization()
		})
	}
}

func TestHeadersBuilderCaseInsensitiveKeys(t *testing.T) {
	b := NewHeadersBuilder(nil).Add("content-type", "text/plain").Add("CONTENT-TYPE", "application/json")

	assert.True(t, b.Has("Content-Type"))
	assert.True(t, b.Has("content-type"))
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, b.Build())
}

func TestHeadersBuilderAuthorizationReplacesLowercase(t *testing.T) {
	values := StaticValues{AccessToken: "fresh"}

	built := NewHeadersBuilder(values).Add("authorization", "Bearer stale").AddAuthorization().Build()
	assert.Equal(t, map[string]string{HeaderAuthorization: "Bearer fresh"}, built)
}
