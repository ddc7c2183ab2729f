package provider

import (
	"context"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/cryptox"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Google implements Provider for Google OAuth. Google returns an ID token on
// every exchange, so the userinfo endpoint is only a fallback.
type Google struct {
	config      oauth2.Config
	userInfoURL string
}

// googleUserInfo is Google's userinfo response. Google uses `verified_email`
// instead of the OIDC-standard `email_verified`.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewGoogle(clientID, clientSecret, redirectURI string) *Google {
	return &Google{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (p *Google) Name() string { return "google" }

func (p *Google) RedirectURI() string { return p.config.RedirectURL }

func (p *Google) AuthCodeURL(state, codeVerifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", cryptox.ChallengeS256(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", cryptox.PKCEMethodS256),
	)
}

func (p *Google) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	return p.config.Exchange(withClient(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
}

func (p *Google) Identity(ctx context.Context, token *oauth2.Token) (domain.Identity, error) {
	if id, ok := identityFromIDToken(p.Name(), token); ok {
		return id, nil
	}

	var info googleUserInfo
	if err := fetchJSON(ctx, &p.config, token, p.userInfoURL, &info); err != nil {
		return domain.Identity{}, err
	}

	return domain.Identity{
		Provider:      p.Name(),
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
