// Package internal holds helpers shared by the executor and the transports:
// service URL normalization and Retry-After parsing.
package internal

import (
	"fmt"
	"net/url"
	"strings"
)

const pathSeparator = "/"

// JoinServiceURL concatenates base, api and path with a separator between api
// and path, then collapses consecutive separators in the path portion. The
// scheme's "://" and any query string are left untouched.
func JoinServiceURL(base, api, path string) (string, error) {
	raw := base + api + pathSeparator + path

	scheme, rest, found := strings.Cut(raw, "://")
	if !found || scheme == "" {
		return "", fmt.Errorf("service url %q has no scheme", raw)
	}

	pathPart, query, hasQuery := strings.Cut(rest, "?")
	normalized := scheme + "://" + CollapseSeparators(pathPart)
	if hasQuery {
		normalized += "?" + query
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("parse service url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("service url %q has no host", normalized)
	}
	return normalized, nil
}

// CollapseSeparators replaces every run of "/" with a single "/".
func CollapseSeparators(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
