package authsdk

import (
	"fmt"
	"strings"
	"time"
)

// Session is a handle on one session credential for making authenticated
// calls against the auth service. Credentials are immutable once issued, so
// a Session holds no locks and no refresh machinery: when Expired reports
// true the caller must obtain a fresh credential through the login flow.
type Session struct {
	client *SDKClient

	credential string
	expiresAt  time.Time
	scopes     map[string]bool // Granted scopes for fast lookup
}

// Credential returns the raw session credential.
func (s *Session) Credential() string {
	return s.credential
}

// Expired reports whether the credential is past its expiry, with a small
// buffer so requests don't race the server-side cutoff.
func (s *Session) Expired() bool {
	if s.expiresAt.IsZero() {
		return false // unknown expiry, let the server decide
	}
	return time.Now().After(s.expiresAt.Add(-30 * time.Second))
}

// Scopes returns a copy of the granted scopes as a slice.
func (s *Session) Scopes() []string {
	scopes := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// HasScope returns true if the session has the specified scope.
func (s *Session) HasScope(scope string) bool {
	return s.scopes[scope]
}

// HasAllScopes returns true if the session has all of the specified scopes.
func (s *Session) HasAllScopes(scopes ...string) bool {
	for _, scope := range scopes {
		if !s.scopes[scope] {
			return false
		}
	}
	return true
}

// HasAnyScope returns true if the session has at least one of the specified scopes.
func (s *Session) HasAnyScope(scopes ...string) bool {
	for _, scope := range scopes {
		if s.scopes[scope] {
			return true
		}
	}
	return false
}

// checkScopes checks if the session has all required scopes.
// Returns an error if scope checking is enabled and scopes are missing.
func (s *Session) checkScopes(required ...string) error {
	if !s.client.CheckScopes {
		return nil // Scope checking disabled
	}

	if len(required) == 0 {
		return nil // No scopes required
	}

	var missing []string
	for _, scope := range required {
		if !s.scopes[scope] {
			missing = append(missing, scope)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required scope(s): %s", strings.Join(missing, ", "))
	}

	return nil
}
