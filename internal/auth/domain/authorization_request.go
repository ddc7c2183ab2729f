package domain

import "time"

// AuthorizationRequest is the server-side record of one pending login. It
// pins the state nonce, the PKCE verifier, and the provider so the callback
// can be validated against exactly what the login endpoint handed out.
//
// A request is single-use: redeeming it sets UsedAt, and a second callback
// with the same state must fail.
type AuthorizationRequest struct {
	ID           string
	Provider     string
	StateHash    string // fingerprint of the state nonce, never the nonce itself
	CodeVerifier string // PKCE verifier sent with the token exchange
	RedirectURI  string // callback URI registered with the provider
	ReturnTo     string // where to send the browser after login, "" = default
	Scopes       []string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	UsedAt       *time.Time
}

// Redeemable reports whether the request can still be exchanged: not yet
// used and not past its expiry.
func (r *AuthorizationRequest) Redeemable(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}
