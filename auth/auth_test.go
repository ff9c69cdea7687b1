package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHS256(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "user-1"}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func newTestCertificate(t *testing.T) *Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "datacore-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &Certificate{Key: key, Cert: cert}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, ok := TokenExpiry(signedHS256(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry(signedHS256(t, time.Time{}))
	assert.False(t, ok)

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("opaque-token").Token()
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok.AccessToken)
	assert.True(t, tok.Expiry.IsZero())

	valid := signedHS256(t, time.Now().Add(time.Hour))
	tok, err = StaticToken(valid).Token()
	require.NoError(t, err)
	assert.Equal(t, valid, tok.AccessToken)

	_, err = StaticToken(signedHS256(t, time.Now().Add(-time.Hour))).Token()
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func tokenServer(t *testing.T, check func(t *testing.T, r *http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		check(t, r)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientCredentialsSecret(t *testing.T) {
	srv, hits := tokenServer(t, func(t *testing.T, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok {
			assert.Equal(t, "app", user)
			assert.Equal(t, "s3cret", pass)
		} else {
			assert.Equal(t, "app", r.PostForm.Get("client_id"))
			assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))
		}
		assert.Equal(t, "api.read", r.PostForm.Get("scope"))
	})

	ts, err := ClientCredentials{
		TokenURL:     srv.URL,
		ClientID:     "app",
		ClientSecret: "s3cret",
		Scopes:       []string{"api.read"},
	}.TokenSource(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "issued-token", tok.AccessToken)
	}
	assert.Equal(t, int32(1), hits.Load(), "token is cached until expiry")
}

func TestClientCredentialsCertificate(t *testing.T) {
	cert := newTestCertificate(t)

	srv, hits := tokenServer(t, func(t *testing.T, r *http.Request) {
		assert.Equal(t, assertionType, r.PostForm.Get("client_assertion_type"))
		assert.Equal(t, "app", r.PostForm.Get("client_id"))
		assert.Empty(t, r.PostForm.Get("client_secret"))

		claims := &jwt.RegisteredClaims{}
		parsed, err := jwt.ParseWithClaims(r.PostForm.Get("client_assertion"), claims, func(tok *jwt.Token) (any, error) {
			return &cert.Key.PublicKey, nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, "app", claims.Subject)
	})

	ts, err := ClientCredentials{TokenURL: srv.URL, ClientID: "app", Certificate: cert}.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "issued-token", tok.AccessToken)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientCredentialsValidation(t *testing.T) {
	_, err := ClientCredentials{ClientID: "app", ClientSecret: "x"}.TokenSource(context.Background())
	assert.Error(t, err)

	_, err = ClientCredentials{TokenURL: "https://idp", ClientID: "app"}.TokenSource(context.Background())
	assert.EqualError(t, err, "client secret is required for password-based auth")
}

func TestNewClientAssertion(t *testing.T) {
	cert := newTestCertificate(t)
	now := time.Now()

	signed, err := NewClientAssertion(cert, "app", "https://idp/token", now, time.Minute)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return &cert.Key.PublicKey, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "RS256", tok.Header["alg"])
	assert.NotEmpty(t, tok.Header["x5t"])
	assert.Equal(t, "app", claims.Issuer)
	assert.True(t, claims.VerifyAudience("https://idp/token", true))
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(time.Minute), claims.ExpiresAt.Time, time.Second)

	other, err := NewClientAssertion(cert, "app", "https://idp/token", now, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, signed, other, "every assertion carries a fresh jti")

	_, err = NewClientAssertion(nil, "app", "aud", now, time.Minute)
	assert.Error(t, err)
}

func TestLoadCertificateRejectsGarbage(t *testing.T) {
	_, err := LoadCertificate([]byte("not a pfx"), "pw")
	assert.Error(t, err)

	_, err = LoadCertificateFile("/nonexistent/cert.pfx", "pw")
	assert.Error(t, err)
}
