package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinServiceURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		api      string
		path     string
		expected string
	}{
		{"doubled separator between base and path", "https://api.x.com/", "v1", "/items", "https://api.x.com/v1/items"},
		{"no separators", "https://api.x.com/", "v1", "items", "https://api.x.com/v1/items"},
		{"base without trailing slash", "https://api.x.com", "/v1/", "/items/", "https://api.x.com/v1/items/"},
		{"runs of separators", "http://localhost:8080///", "//v2//", "///a//b", "http://localhost:8080/v2/a/b"},
		{"query left untouched", "https://api.x.com/", "v1", "/search?next=a//b", "https://api.x.com/v1/search?next=a//b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinServiceURL(tt.base, tt.api, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestJoinServiceURLInvalid(t *testing.T) {
	tests := []struct {
		name string
		base string
	}{
		{"empty base", ""},
		{"no scheme", "api.x.com/"},
		{"no host", "https:///"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JoinServiceURL(tt.base, "v1", "items")
			assert.Error(t, err)
		})
	}
}

func TestCollapseSeparators(t *testing.T) {
	assert.Equal(t, "a/b/c", CollapseSeparators("a//b///c"))
	assert.Equal(t, "/a/", CollapseSeparators("//a//"))
	assert.Equal(t, "abc", CollapseSeparators("abc"))
}
