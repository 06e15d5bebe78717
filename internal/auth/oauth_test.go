package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newFakeGitHub serves the token endpoint and the /user API.
func newFakeGitHub(t *testing.T, userStatus int, userBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userStatus)
		w.Write([]byte(userBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGitHubProvider(srv *httptest.Server) *GitHubProvider {
	p := NewGitHubProvider("client", "secret", "http://localhost/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	p.userURL = srv.URL + "/user"
	return p
}

func TestGitHubProvider_AuthURL(t *testing.T) {
	p := NewGitHubProvider("client-123", "secret", "http://localhost/cb")

	u := p.AuthURL("state-xyz")
	assert.True(t, strings.HasPrefix(u, "https://github.com/login/oauth/authorize"))
	assert.Contains(t, u, "state=state-xyz")
	assert.Contains(t, u, "client_id=client-123")
}

func TestGitHubProvider_Exchange(t *testing.T) {
	srv := newFakeGitHub(t, http.StatusOK, `{"id":583231,"login":"octocat","name":"The Octocat"}`)
	p := newTestGitHubProvider(srv)

	user, err := p.Exchange(context.Background(), "code-1")
	require.NoError(t, err)

	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, "The Octocat", user.Name)
	assert.Equal(t, "github:583231", user.Subject())
}

func TestGitHubProvider_ExchangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusInternalServerError, `{}`},
		{"zero id", http.StatusOK, `{"id":0,"login":"ghost"}`},
		{"bad json", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestGitHubProvider(newFakeGitHub(t, tt.status, tt.body))
			_, err := p.Exchange(context.Background(), "code-1")
			assert.Error(t, err)
		})
	}
}
