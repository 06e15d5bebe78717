package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserAPI = "https://api.github.com/user"

// GitHubUser is the portion of the GitHub /user API response we use.
type GitHubUser struct {
	ID    int64  `json:"id"`    // stable numeric id
	Login string `json:"login"` // username, e.g. "sakif"
	Name  string `json:"name"`  // display name, may be empty
}

// Subject is the session token subject for this account.
func (u *GitHubUser) Subject() string {
	return "github:" + strconv.FormatInt(u.ID, 10)
}

// GitHubProvider runs the OAuth authorization code flow against GitHub.
//
// FLOW:
//  1. AuthURL redirects the browser to GitHub with a random state.
//  2. GitHub calls back with a code and the same state.
//  3. Exchange trades the code for an access token server-to-server and
//     reads the account from the /user API.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must match the
// OAuth App's "Authorization callback URL" exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		userURL: githubUserAPI,
	}
}

func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow and returns the signed-in GitHub account.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
