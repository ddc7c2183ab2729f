package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/cryptox"
	"golang.org/x/oauth2"
)

// OIDC implements Provider for any OIDC-compliant identity provider,
// configured either through a discovery URL or explicit endpoints.
type OIDC struct {
	config      oauth2.Config
	userInfoURL string
}

// oidcDiscovery is the subset of the OIDC discovery document we need.
type oidcDiscovery struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	Issuer                string `json:"issuer"`
}

// oidcUserInfo is the standard OIDC userinfo response.
type oidcUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// NewOIDC creates a generic OIDC provider. Discovery runs once at startup;
// there's no refetching, restart to pick up endpoint changes.
func NewOIDC(cfg Config) (*OIDC, error) {
	var authURL, tokenURL, userInfoURL string

	if cfg.DiscoveryURL != "" {
		discovery, err := fetchDiscovery(cfg.DiscoveryURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch OIDC discovery: %w", err)
		}
		authURL = discovery.AuthorizationEndpoint
		tokenURL = discovery.TokenEndpoint
		userInfoURL = discovery.UserInfoEndpoint
	} else {
		if cfg.AuthorizationURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
			return nil, fmt.Errorf("either a discovery URL or all endpoints (authorization, token, userinfo) must be provided")
		}
		authURL = cfg.AuthorizationURL
		tokenURL = cfg.TokenURL
		userInfoURL = cfg.UserInfoURL
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &OIDC{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userInfoURL: userInfoURL,
	}, nil
}

func fetchDiscovery(discoveryURL string) (*oidcDiscovery, error) {
	client := &http.Client{Timeout: upstreamTimeout}
	resp, err := client.Get(discoveryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("discovery endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var discovery oidcDiscovery
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	if discovery.AuthorizationEndpoint == "" || discovery.TokenEndpoint == "" || discovery.UserInfoEndpoint == "" {
		return nil, fmt.Errorf("discovery document missing required endpoints")
	}

	return &discovery, nil
}

func (p *OIDC) Name() string { return "oidc" }

func (p *OIDC) RedirectURI() string { return p.config.RedirectURL }

func (p *OIDC) AuthCodeURL(state, codeVerifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", cryptox.ChallengeS256(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", cryptox.PKCEMethodS256),
	)
}

func (p *OIDC) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	return p.config.Exchange(withClient(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
}

func (p *OIDC) Identity(ctx context.Context, token *oauth2.Token) (domain.Identity, error) {
	if id, ok := identityFromIDToken(p.Name(), token); ok {
		return id, nil
	}

	var info oidcUserInfo
	if err := fetchJSON(ctx, &p.config, token, p.userInfoURL, &info); err != nil {
		return domain.Identity{}, err
	}

	return domain.Identity{
		Provider:      p.Name(),
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
