// Package auth resolves who is calling.
//
// Two credential kinds are accepted:
//
//  1. A bearer ID token from the external identity provider, verified
//     against the provider's published keys (OIDCVerifier).
//  2. A session cookie issued by this server after GitHub sign-in,
//     an HS256 JWT signed with JWT_SECRET (TokenService).
//
// Both resolve to an Identity whose TokenIdentifier keys the caller's profile.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionIssuer is the issuer claim of session tokens and the issuer half
	// of their TokenIdentifier.
	SessionIssuer = "cofounder-match"

	// SessionCookie is the name of the cookie holding the session token.
	SessionCookie = "token"

	defaultSessionTTL = 7 * 24 * time.Hour
)

// TokenService issues and validates session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: defaultSessionTTL}, nil
}

// TTL is how long a freshly generated session token stays valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. Subject is the upstream account id, e.g.
// "github:1234"; name and nickname are carried as display hints.
type claims struct {
	jwt.RegisteredClaims
	Name     string `json:"name,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// Generate signs a session token for subject with the default lifetime.
func (s *TokenService) Generate(subject, name, nickname string) (string, error) {
	return s.GenerateWithDuration(subject, name, nickname, s.ttl)
}

// GenerateWithDuration signs a session token with a custom lifetime.
// Tests use a negative duration to mint expired tokens.
func (s *TokenService) GenerateWithDuration(subject, name, nickname string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    SessionIssuer,
		},
		Name:     name,
		Nickname: nickname,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token.
//
// CHECKS:
//   - HS256 signature with our secret (other algorithms are rejected)
//   - not expired, and an expiry is present
//   - issuer is SessionIssuer
//   - subject is non-empty
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(SessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return NewIdentity(SessionIssuer, c.Subject, c.Name, c.Nickname), nil
}

// Identify reads the session cookie.
func (s *TokenService) Identify(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoCredentials
	}
	return s.Validate(cookie.Value)
}
