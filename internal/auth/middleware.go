package auth

import (
	"errors"
	"net/http"
)

// RequireAuth resolves the caller from the first source that finds a
// credential and stores it in the request context. Requests with no valid
// credential get 401 and stop here.
//
// Sources are tried in order; a source reporting ErrNoCredentials passes
// to the next one.
func RequireAuth(sources ...IdentitySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolve(r, sources)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","code":"UNAUTHORIZED","message":"You must be signed in."}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the caller when a valid credential is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(sources ...IdentitySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := resolve(r, sources); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(r *http.Request, sources []IdentitySource) (*Identity, error) {
	for _, src := range sources {
		id, err := src.Identify(r)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if id == nil || id.TokenIdentifier == "" {
			return nil, ErrNoCredentials
		}
		return id, nil
	}
	return nil, ErrNoCredentials
}
