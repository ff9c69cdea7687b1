package auth

import (
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/pkcs12"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const assertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Certificate is an RSA key with its X.509 certificate.
type Certificate struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate
}

// LoadCertificate decodes PKCS#12 (PFX) data holding an RSA key.
func LoadCertificate(pfxData []byte, password string) (*Certificate, error) {
	key, cert, err := pkcs12.Decode(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pkcs12: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return &Certificate{Key: rsaKey, Cert: cert}, nil
}

// LoadCertificateFile reads and decodes a PFX file.
func LoadCertificateFile(path, password string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cert file: %w", err)
	}
	return LoadCertificate(data, password)
}

// ClientCredentials configures the OAuth2 client-credentials grant. Either
// ClientSecret or Certificate must be set.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Certificate  *Certificate

	// AssertionTTL bounds the lifetime of certificate client assertions.
	// Defaults to five minutes.
	AssertionTTL time.Duration
}

// TokenSource returns a caching source that fetches a new token when the
// current one expires. ctx is used for the token requests.
func (c ClientCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.TokenURL == "" || c.ClientID == "" {
		return nil, fmt.Errorf("token url and client id are required")
	}

	if c.Certificate == nil {
		if c.ClientSecret == "" {
			return nil, fmt.Errorf("client secret is required for password-based auth")
		}
		cfg := &clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.Scopes,
		}
		return cfg.TokenSource(ctx), nil
	}

	return oauth2.ReuseTokenSource(nil, &assertionSource{ctx: ctx, creds: c}), nil
}

// assertionSource signs a fresh client assertion for every token request.
type assertionSource struct {
	ctx   context.Context
	creds ClientCredentials
}

func (s *assertionSource) Token() (*oauth2.Token, error) {
	ttl := s.creds.AssertionTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	assertion, err := NewClientAssertion(s.creds.Certificate, s.creds.ClientID, s.creds.TokenURL, time.Now(), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to build client assertion: %w", err)
	}

	cfg := &clientcredentials.Config{
		ClientID:  s.creds.ClientID,
		TokenURL:  s.creds.TokenURL,
		Scopes:    s.creds.Scopes,
		AuthStyle: oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"client_assertion_type": {assertionType},
			"client_assertion":      {assertion},
		},
	}
	return cfg.Token(s.ctx)
}

// NewClientAssertion creates an RS256 JWT identifying clientID to audience,
// signed with cert's key and carrying the certificate thumbprint in x5t.
func NewClientAssertion(cert *Certificate, clientID, audience string, now time.Time, ttl time.Duration) (string, error) {
	if cert == nil || cert.Key == nil || cert.Cert == nil {
		return "", fmt.Errorf("certificate with private key is required")
	}

	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audience},
		Issuer:    clientID,
		Subject:   clientID,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	thumb := sha1.Sum(cert.Cert.Raw)
	token.Header["x5t"] = base64.RawURLEncoding.EncodeToString(thumb[:])

	signed, err := token.SignedString(cert.Key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}
