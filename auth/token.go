// Package auth provides oauth2.TokenSource implementations that feed the
// AccessToken environment value: a static bearer token whose JWT expiry is
// enforced, and the OAuth2 client-credentials flow with either a client
// secret or a certificate-signed client assertion.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
)

// ErrTokenExpired is returned by a static source once its JWT has expired.
var ErrTokenExpired = errors.New("auth: access token expired")

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// It reports false when token is not a JWT or has no exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// StaticToken returns a source always yielding token. When token is a JWT
// with an exp claim, the source fails with ErrTokenExpired after expiry.
func StaticToken(token string) oauth2.TokenSource {
	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(token); ok {
		tok.Expiry = exp
	}
	return &staticSource{token: tok}
}

type staticSource struct {
	token *oauth2.Token
}

func (s *staticSource) Token() (*oauth2.Token, error) {
	if !s.token.Valid() {
		return nil, ErrTokenExpired
	}
	return s.token, nil
}
