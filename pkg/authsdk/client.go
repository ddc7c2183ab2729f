package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the mysingle auth service.
// It provides access to unauthenticated operations (health, JWKS) and can
// wrap an existing session credential into a Session for authenticated calls.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes determines whether to perform client-side scope validation
	// before making API requests. When true, the Session will check if it has
	// the required scopes before making a request and return an error if not.
	// This avoids unnecessary API calls and provides better error messages.
	// Set to false for testing to ensure server-side scope checks work correctly.
	// Default: true
	CheckScopes bool
}

// NewSDKClient creates a new auth service client with scope checking enabled.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckScopes: true, // Enabled by default
	}
}

// NewSessionFromCredential wraps a session credential obtained out-of-band
// (from the browser login flow, a cookie, or another service) into a Session.
// Session credentials are short-lived and are not refreshed: when the
// credential expires the user has to log in again.
func (c *SDKClient) NewSessionFromCredential(credential string, scopes []string, expiresAt time.Time) *Session {
	scopeSet := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = true
	}

	return &Session{
		client:     c,
		credential: credential,
		expiresAt:  expiresAt,
		scopes:     scopeSet,
	}
}
