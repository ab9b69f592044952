package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const apiBase = "https://discord.com/api/v10"

// Endpoint is Discord's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// Identity is the subset of the Discord /users/@me payload the dashboard
// needs.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// OAuthClient exchanges dashboard login codes for a Discord identity.
type OAuthClient struct {
	conf *oauth2.Config
	log  *zap.Logger
}

func NewOAuthClient(clientID, clientSecret, redirectURL string, log *zap.Logger) *OAuthClient {
	return &OAuthClient{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     Endpoint,
		},
		log: log,
	}
}

// ExchangeCode trades an OAuth authorization code for the caller's identity.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*Identity, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord api unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discord api returned %d: %s", resp.StatusCode, string(body))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, err
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("discord api returned empty identity")
	}
	return &identity, nil
}
