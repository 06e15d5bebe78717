package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://id.example.test"
	testAudience = "cofounder-match"
)

type oidcFixture struct {
	key      *rsa.PrivateKey
	verifier *OIDCVerifier
}

func newOIDCFixture(t *testing.T) *oidcFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &oidcFixture{
		key:      key,
		verifier: NewOIDCVerifierWithKeySet(testIssuer, testAudience, keySet),
	}
}

func (f *oidcFixture) sign(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                testAudience,
		"sub":                "user_2abc",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"name":               "Ada Lovelace",
		"preferred_username": "ada",
	}
}

func TestOIDCVerifier_Identify(t *testing.T) {
	f := newOIDCFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.sign(t, validClaims()))

	id, err := f.verifier.Identify(req)
	require.NoError(t, err)

	assert.Equal(t, testIssuer+"|user_2abc", id.TokenIdentifier)
	assert.Equal(t, "user_2abc", id.Subject)
	assert.Equal(t, "Ada Lovelace", id.Name)
	assert.Equal(t, "ada", id.Nickname, "preferred_username fills nickname")
}

func TestOIDCVerifier_Rejects(t *testing.T) {
	f := newOIDCFixture(t)

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example" }},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			tt.mutate(c)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+f.sign(t, c))

			_, err := f.verifier.Identify(req)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoCredentials))
		})
	}
}

func TestOIDCVerifier_NoHeader(t *testing.T) {
	f := newOIDCFixture(t)

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, err := f.verifier.Identify(req)
		assert.ErrorIs(t, err, ErrNoCredentials, "header %q", header)
	}
}
