package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"

	"autoposter-core/domain/model"
)

const (
	authorizeURL = "https://www.tiktok.com/v2/auth/authorize/"

	// user.info.basic lets us confirm the link, video.publish covers posting.
	defaultScopes = "user.info.basic,video.publish"
)

// OAuthConfig holds the app credentials for the TikTok Login Kit flow.
type OAuthConfig struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
	HTTPTimeout  time.Duration
}

// OAuthClient exchanges and refreshes TikTok user tokens. TikTok deviates
// from plain oauth2 by naming the client id "client_key", so the token
// endpoint calls are done by hand instead of through oauth2.Config.
type OAuthClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
}

type authorizeParams struct {
	ClientKey    string `url:"client_key"`
	Scope        string `url:"scope"`
	ResponseType string `url:"response_type"`
	RedirectURI  string `url:"redirect_uri"`
	State        string `url:"state"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewOAuthClient creates an OAuth client for the Login Kit flow
func NewOAuthClient(cfg OAuthConfig) *OAuthClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OAuthClient{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// AuthorizeURL builds the consent page URL carrying the anti-forgery state.
func (c *OAuthClient) AuthorizeURL(state string) string {
	v, _ := query.Values(authorizeParams{
		ClientKey:    c.cfg.ClientKey,
		Scope:        defaultScopes,
		ResponseType: "code",
		RedirectURI:  c.cfg.RedirectURI,
		State:        state,
	})
	return authorizeURL + "?" + v.Encode()
}

// ExchangeCode trades an authorization code for a user token.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	form := url.Values{
		"client_key":    {c.cfg.ClientKey},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.cfg.RedirectURI},
	}
	return c.requestToken(ctx, form)
}

// RefreshToken trades a refresh token for a fresh access token.
func (c *OAuthClient) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	form := url.Values{
		"client_key":    {c.cfg.ClientKey},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, form)
}

func (c *OAuthClient) requestToken(ctx context.Context, form url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if out.Error != "" {
		return nil, &model.PlatformError{Code: out.Error, Message: out.ErrorDescription}
	}
	if out.AccessToken == "" {
		return nil, &model.PlatformError{Code: "invalid_token_response", Message: "token endpoint returned no access token"}
	}

	tok := &oauth2.Token{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		TokenType:    out.TokenType,
	}
	if out.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Scopes reports the scope set requested during authorization.
func (c *OAuthClient) Scopes() string { return defaultScopes }
