package auth

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoCredentials is returned by an IdentitySource when the request
// carries nothing for it to check.
var ErrNoCredentials = errors.New("auth: no credentials")

// Identity is the authenticated caller as asserted by a token.
//
// TokenIdentifier is "<issuer>|<subject>" and is the only value profiles
// are keyed on. Name and Nickname are display hints from the token.
type Identity struct {
	TokenIdentifier string
	Issuer          string
	Subject         string
	Name            string
	Nickname        string
}

// NewIdentity builds an Identity with its TokenIdentifier derived from
// issuer and subject.
func NewIdentity(issuer, subject, name, nickname string) *Identity {
	return &Identity{
		TokenIdentifier: issuer + "|" + subject,
		Issuer:          issuer,
		Subject:         subject,
		Name:            name,
		Nickname:        nickname,
	}
}

// IdentitySource resolves the caller from one kind of credential.
// It returns ErrNoCredentials when its credential is absent and any other
// error when the credential is present but invalid.
type IdentitySource interface {
	Identify(r *http.Request) (*Identity, error)
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller attached by RequireAuth or
// OptionalAuth. It returns (nil, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil && id.TokenIdentifier != ""
}
