package auth_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// requireErrorRedirect asserts the callback bounced the browser to the login
// error page with the given opaque code and nothing else.
func requireErrorRedirect(t *testing.T, resp *http.Response, code string) {
	t.Helper()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login/error", location.Path)
	require.Equal(t, code, location.Query().Get("error"))
	require.Len(t, location.Query(), 1, "error redirect must carry only the opaque code")
}

func TestCallbackRejectsTamperedState(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	state := env.beginLogin(t, "")

	// Flip the last character of the HMAC part.
	tampered := state[:len(state)-1]
	if strings.HasSuffix(state, "A") {
		tampered += "B"
	} else {
		tampered += "A"
	}

	resp := env.completeLogin(t, tampered)
	defer resp.Body.Close()

	requireErrorRedirect(t, resp, "state_mismatch")
	require.Equal(t, int32(0), env.idp.tokenHits.Load(),
		"a tampered state must never reach the provider token endpoint")
}

func TestCallbackRejectsForgedState(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	resp := env.completeLogin(t, "forged-nonce.Zm9yZ2VkLXNpZ25hdHVyZQ")
	defer resp.Body.Close()

	requireErrorRedirect(t, resp, "state_mismatch")
	require.Equal(t, int32(0), env.idp.tokenHits.Load())
}

func TestCallbackRejectsReplayedState(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	state := env.beginLogin(t, "")

	first := env.completeLogin(t, state)
	first.Body.Close()
	require.Equal(t, http.StatusFound, first.StatusCode)
	require.Equal(t, int32(1), env.idp.tokenHits.Load())

	// Same state again: the server-side record was consumed.
	replay := env.completeLogin(t, state)
	defer replay.Body.Close()

	requireErrorRedirect(t, replay, "state_mismatch")
	require.Equal(t, int32(1), env.idp.tokenHits.Load(),
		"a replayed state must not trigger a second code exchange")
}

func TestCallbackMissingParameters(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	resp, err := httpClient().Get(env.server.URL + "/api/oauth2/oidc/callback")
	require.NoError(t, err)
	defer resp.Body.Close()

	requireErrorRedirect(t, resp, "invalid_request")
}

func TestCallbackProviderDenied(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	resp, err := httpClient().Get(env.server.URL +
		"/api/oauth2/oidc/callback?error=access_denied&error_description=user+cancelled")
	require.NoError(t, err)
	defer resp.Body.Close()

	requireErrorRedirect(t, resp, "access_denied")
}

func TestCredentialFromUnknownKeyRejected(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	// A second key manager with the same issuer and audience but different
	// keys, standing in for an attacker with their own signing material.
	rogue, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		Audience:  []string{testAudience},
		NumKeys:   1,
	})
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims(
		"user-1", "sid-1", testEmail, true, "Some User", "oidc",
		[]string{"profile:read"}, jwtx.DefaultSessionTTL,
		testIssuer, []string{testAudience}, time.Now(),
	)
	forged, err := rogue.GetSigner().Sign(claims)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/userinfo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+forged)

	resp, err := httpClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserinfoWithoutCredential(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	resp, err := httpClient().Get(env.server.URL + "/v1/userinfo")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
