package domain

import "time"

// Session modes supported by the issuer.
const (
	// SessionModeJWT issues self-contained credentials. Nothing is stored
	// server-side, so revocation waits for expiry.
	SessionModeJWT = "jwt"

	// SessionModeStore issues credentials backed by a server-side record
	// that can be revoked immediately.
	SessionModeStore = "store"
)

// Session is the server-side session record used in store mode. In jwt mode
// no record exists and the SID in the credential is purely informational.
type Session struct {
	ID        string
	UserID    string
	TokenHash string // fingerprint of the issued credential
	Scopes    []string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Live reports whether the session is usable: not revoked and not expired.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SessionCredential is what the issuer hands back after a successful login:
// the serialized credential plus the metadata callers need to set cookies
// and report expiry without re-parsing the token.
type SessionCredential struct {
	Token     string
	TokenType string // always "Bearer"
	SessionID string
	UserID    string
	Scopes    []string
	ExpiresAt time.Time
}
