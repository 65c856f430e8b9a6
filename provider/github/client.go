// Package github resolves a GitHub OAuth authorization code into a verified
// identity.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/authcore/provider"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

// DefaultAPIBaseURL is the GitHub REST API root.
const DefaultAPIBaseURL = "https://api.github.com"

var (
	ErrNotConfigured  = errors.New("github: client id and secret are required")
	ErrExchangeFailed = errors.New("github: code exchange failed")
	ErrProfileFailed  = errors.New("github: profile request failed")
)

// Config configures a Client. Endpoint and APIBaseURL default to github.com.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	APIBaseURL   string
	HTTPClient   *http.Client
}

// Client exchanges OAuth authorization codes and reads the signed-in
// user's profile.
type Client struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

type userPayload struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailPayload struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = oauthgithub.Endpoint
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"read:user", "user:email"}
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     cfg.Endpoint,
		},
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}, nil
}

// Exchange trades code for an access token and resolves the user's
// identity. When the profile email is private, the primary verified address
// from /user/emails is used.
func (c *Client) Exchange(ctx context.Context, code string) (provider.Identity, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	api := c.oauth.Client(ctx, tok)

	var user userPayload
	if err := c.get(ctx, api, "/user", &user); err != nil {
		return provider.Identity{}, err
	}
	if user.ID == 0 {
		return provider.Identity{}, fmt.Errorf("%w: missing user id", ErrProfileFailed)
	}

	email := user.Email
	if email == "" {
		var emails []emailPayload
		if err := c.get(ctx, api, "/user/emails", &emails); err != nil {
			return provider.Identity{}, err
		}
		email = primaryVerified(emails)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return provider.Identity{}, provider.ErrEmailRequired
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return provider.Identity{
		Provider: provider.GitHub,
		Subject:  strconv.FormatInt(user.ID, 10),
		Email:    email,
		Name:     name,
		Picture:  user.AvatarURL,
	}, nil
}

func (c *Client) get(ctx context.Context, api *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileFailed, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := api.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrProfileFailed, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrProfileFailed, err)
	}
	return nil
}

func primaryVerified(emails []emailPayload) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
