package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoginFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	state := env.beginLogin(t, "/dashboard")

	resp := env.completeLogin(t, state)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == httpx.SessionCookieName {
			token = c.Value
			require.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, token, "callback must set the session cookie")
	require.Equal(t, int32(1), env.idp.tokenHits.Load())

	// The issued credential verifies locally and carries the expected claims.
	claims, err := env.keys.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, testEmail, claims.Email)
	require.Equal(t, "oidc", claims.Provider)
	require.Contains(t, claims.Scopes, "profile:read")
	require.NotContains(t, claims.Scopes, "admin:write")

	// Userinfo via cookie.
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/userinfo", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: httpx.SessionCookieName, Value: token})

	infoResp, err := httpClient().Do(req)
	require.NoError(t, err)
	defer infoResp.Body.Close()
	require.Equal(t, http.StatusOK, infoResp.StatusCode)

	var info authsdk.UserInfoResponse
	require.NoError(t, json.NewDecoder(infoResp.Body).Decode(&info))
	require.Equal(t, testEmail, info.Email)
	require.True(t, info.EmailVerified)
	require.Equal(t, "Some User", info.Name)
	require.Equal(t, "oidc", info.Provider)
	require.False(t, info.IsSuperuser)

	// Userinfo via bearer works the same.
	req2, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/userinfo", nil)
	require.NoError(t, err)
	req2.Header.Set("Authorization", "Bearer "+token)

	bearerResp, err := httpClient().Do(req2)
	require.NoError(t, err)
	defer bearerResp.Body.Close()
	require.Equal(t, http.StatusOK, bearerResp.StatusCode)
}

func TestLoginDefaultsToPostLoginURL(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	state := env.beginLogin(t, "")
	resp := env.completeLogin(t, state)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/welcome", resp.Header.Get("Location"))
}

func TestLoginUnknownProvider(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	resp, err := httpClient().Get(env.server.URL + "/api/oauth2/github/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "unknown_provider", body.Error)
}

func TestRepeatLoginReusesUser(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	first := env.login(t)
	second := env.login(t)

	firstClaims, err := env.keys.Verifier.Verify(first)
	require.NoError(t, err)
	secondClaims, err := env.keys.Verifier.Verify(second)
	require.NoError(t, err)

	require.Equal(t, firstClaims.Subject, secondClaims.Subject)
	require.NotEqual(t, firstClaims.SID, secondClaims.SID)
}
