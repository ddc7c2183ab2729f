package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default credential TTL constants for the session pipeline.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultSessionTTL is the default lifetime for session credentials.
	// Short-lived because JWT sessions are not revocable server-side.
	DefaultSessionTTL = 1 * time.Hour

	// DefaultStateTTL is how long a pending authorization request stays
	// redeemable before the login has to start over.
	DefaultStateTTL = 10 * time.Minute
)

// Claims are session-credential claims shared by the auth service and every
// resource service that verifies its tokens. Keep changes additive to
// preserve compatibility.
type Claims struct {
	jwt.RegisteredClaims

	/* Cross-service custom fields */

	// Session ID
	SID string `json:"sid,omitempty"`

	// Permission Scopes "profile:read, admin:write"
	Scopes []string `json:"scopes,omitempty"`

	// Email of the authenticated user, as asserted by the upstream
	// identity provider.
	Email string `json:"email,omitempty"`

	// EmailVerified carries the provider's verification status through to
	// resource services that require a verified address.
	EmailVerified bool `json:"email_verified,omitempty"`

	// Name is the display name for the user
	Name string `json:"name,omitempty"`

	// Provider is the upstream identity provider that authenticated the
	// user ("google", "kakao", "naver", "oidc").
	Provider string `json:"idp,omitempty"`
}

// NewSessionClaims builds minimally-correct claims.
func NewSessionClaims(
	subject, sid string,
	email string,
	emailVerified bool,
	name, provider string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:           sid,
		Scopes:        scopes,
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
		Provider:      provider,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but I'm being lazy and using random.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn’t expired (exp) and isn’t before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	// Check After Leeway
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	// Check Before Leeway
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// RequireEmail enforces presence of the email claim, optionally verified.
// Resource services call this when a handler depends on a usable address.
func (c *Claims) RequireEmail(verified bool) error {
	if c.Email == "" {
		return ErrInvalidClaim
	}
	if verified && !c.EmailVerified {
		return ErrInvalidClaim
	}
	return nil
}
