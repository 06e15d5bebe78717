package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/service"
)

const stateCookie = "oauth_state"

// OAuthProvider is the part of auth.GitHubProvider the sign-in flow uses.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler runs first-party sign-in through GitHub and issues the
// session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code, ensure the profile, set the session cookie
//   - HandleLogout         → clear the session cookie
//
// The session identity has the same shape as a bearer-token identity, so
// everything behind the auth middleware treats both alike.
type AuthHandler struct {
	github   OAuthProvider
	tokens   *auth.TokenService
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewAuthHandler(
	github OAuthProvider,
	tokens *auth.TokenService,
	profiles *service.ProfileService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:   github,
		tokens:   tokens,
		profiles: profiles,
		logger:   logger,
	}
}

// HandleGitHubLogin redirects to GitHub with a random state that is also
// kept in a short-lived cookie for the callback to compare.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes sign-in.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Compare the state parameter with the state cookie
//  2. Exchange the code for the GitHub account
//  3. Ensure the profile row, with the account's name and login as hints
//  4. Set the session cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	id := auth.NewIdentity(auth.SessionIssuer, ghUser.Subject(), ghUser.Name, ghUser.Login)
	profile, err := h.profiles.Ensure(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Generate(id.Subject, ghUser.Name, ghUser.Login)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user signed in",
		slog.String("profile_id", profile.ID),
		slog.String("login", ghUser.Login),
	)

	// Secure is left to the TLS-terminating proxy in local development.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie. Sessions are stateless, so the
// token itself stays valid until it expires.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
