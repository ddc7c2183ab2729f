package domain

import "time"

// User is a platform account linked to exactly one upstream identity
// provider account. Users are created on first login and refreshed from the
// provider's claims on every subsequent login.
type User struct {
	ID              string
	Provider        string // "google", "kakao", "naver", "oidc"
	ProviderSubject string // stable subject from the provider ("sub")
	Email           string
	EmailVerified   bool
	DisplayName     string
	Picture         string
	IsActive        bool // inactive users cannot log in
	IsSuperuser     bool // grants admin:read / admin:write scopes
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Identity is what the token exchanger derives about a user from the
// provider's ID token or userinfo endpoint. It carries no platform state.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Complete reports whether the identity carries the minimum we require to
// create or match a platform account.
func (i Identity) Complete() bool {
	return i.Provider != "" && i.Subject != "" && i.Email != ""
}
