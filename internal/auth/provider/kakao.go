package provider

import (
	"context"
	"strconv"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/cryptox"
	"golang.org/x/oauth2"
)

// Kakao implements Provider for Kakao Login. Kakao doesn't issue OIDC ID
// tokens unless the app opts into OIDC, so identity comes from the
// /v2/user/me endpoint.
type Kakao struct {
	config      oauth2.Config
	userInfoURL string
}

// kakaoUserInfo is Kakao's /v2/user/me response, trimmed to what we use.
// The numeric account id is the stable subject.
type kakaoUserInfo struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func NewKakao(clientID, clientSecret, redirectURI string) *Kakao {
	return &Kakao{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://kauth.kakao.com/oauth/authorize",
				TokenURL: "https://kauth.kakao.com/oauth/token",
			},
		},
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
	}
}

func (p *Kakao) Name() string { return "kakao" }

func (p *Kakao) RedirectURI() string { return p.config.RedirectURL }

func (p *Kakao) AuthCodeURL(state, codeVerifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", cryptox.ChallengeS256(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", cryptox.PKCEMethodS256),
	)
}

func (p *Kakao) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	return p.config.Exchange(withClient(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
}

func (p *Kakao) Identity(ctx context.Context, token *oauth2.Token) (domain.Identity, error) {
	if id, ok := identityFromIDToken(p.Name(), token); ok {
		return id, nil
	}

	var info kakaoUserInfo
	if err := fetchJSON(ctx, &p.config, token, p.userInfoURL, &info); err != nil {
		return domain.Identity{}, err
	}

	var subject string
	if info.ID != 0 {
		subject = strconv.FormatInt(info.ID, 10)
	}

	return domain.Identity{
		Provider:      p.Name(),
		Subject:       subject,
		Email:         info.KakaoAccount.Email,
		EmailVerified: info.KakaoAccount.IsEmailVerified,
		Name:          info.KakaoAccount.Profile.Nickname,
		Picture:       info.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}
