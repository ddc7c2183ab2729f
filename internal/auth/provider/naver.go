package provider

import (
	"context"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/cryptox"
	"golang.org/x/oauth2"
)

// Naver implements Provider for Naver Login. Naver has no ID token; identity
// comes from the /v1/nid/me endpoint. Naver doesn't report email
// verification, but only verified addresses are exposed, so we treat a
// present email as verified.
type Naver struct {
	config      oauth2.Config
	userInfoURL string
}

// naverUserInfo is Naver's /v1/nid/me response envelope.
type naverUserInfo struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

func NewNaver(clientID, clientSecret, redirectURI string) *Naver {
	return &Naver{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
				TokenURL: "https://nid.naver.com/oauth2.0/token",
			},
		},
		userInfoURL: "https://openapi.naver.com/v1/nid/me",
	}
}

func (p *Naver) Name() string { return "naver" }

func (p *Naver) RedirectURI() string { return p.config.RedirectURL }

func (p *Naver) AuthCodeURL(state, codeVerifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", cryptox.ChallengeS256(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", cryptox.PKCEMethodS256),
	)
}

func (p *Naver) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	return p.config.Exchange(withClient(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
}

func (p *Naver) Identity(ctx context.Context, token *oauth2.Token) (domain.Identity, error) {
	var info naverUserInfo
	if err := fetchJSON(ctx, &p.config, token, p.userInfoURL, &info); err != nil {
		return domain.Identity{}, err
	}

	name := info.Response.Name
	if name == "" {
		name = info.Response.Nickname
	}

	return domain.Identity{
		Provider:      p.Name(),
		Subject:       info.Response.ID,
		Email:         info.Response.Email,
		EmailVerified: info.Response.Email != "",
		Name:          name,
		Picture:       info.Response.ProfileImage,
	}, nil
}
