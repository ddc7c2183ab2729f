// Package provider implements the relying-party side of the upstream
// identity providers: building authorization URLs, exchanging callback codes
// for tokens, and deriving a user identity from the provider's claims.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"golang.org/x/oauth2"
)

// upstreamTimeout bounds every network call to a provider. A slow provider
// must not hold a login callback open indefinitely.
const upstreamTimeout = 10 * time.Second

// Provider is one upstream identity provider. Implementations are stateless
// and safe for concurrent use.
type Provider interface {
	// Name returns the provider key used in URLs and stored on users
	// ("google", "kakao", "naver", "oidc").
	Name() string

	// RedirectURI returns the callback URI registered with the provider.
	RedirectURI() string

	// AuthCodeURL builds the URL to redirect the browser to. state is the
	// signed anti-CSRF value; codeVerifier is the PKCE verifier whose S256
	// challenge is sent along.
	AuthCodeURL(state, codeVerifier string) string

	// Exchange redeems the callback code at the provider's token endpoint,
	// presenting the PKCE verifier.
	Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)

	// Identity derives the user identity from the token set, preferring
	// ID-token claims and falling back to the userinfo endpoint.
	Identity(ctx context.Context, token *oauth2.Token) (domain.Identity, error)
}

// Config carries the registration of this service with one provider.
type Config struct {
	Name         string // provider key; decides the implementation
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// OIDC-only: either a discovery URL or all three endpoints.
	DiscoveryURL     string
	AuthorizationURL string
	TokenURL         string
	UserInfoURL      string
}

// New builds the Provider for cfg.Name.
func New(cfg Config) (Provider, error) {
	switch cfg.Name {
	case "google":
		return NewGoogle(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI), nil
	case "kakao":
		return NewKakao(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI), nil
	case "naver":
		return NewNaver(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI), nil
	case "oidc":
		return NewOIDC(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// withClient installs a bounded-timeout HTTP client for the oauth2 package
// to use, so token exchanges and userinfo fetches can't hang.
func withClient(ctx context.Context) context.Context {
	client := &http.Client{Timeout: upstreamTimeout}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
