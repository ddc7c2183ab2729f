package auth_test

import (
	"net/http"
	"testing"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

// The callback endpoint carries the strictest limit: it is the one an
// attacker hammers to guess or replay states.
func TestCallbackRateLimited(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	url := env.server.URL + "/api/oauth2/oidc/callback?state=junk&code=junk"

	// The first five requests within the window get through to the handler
	// (and fail state validation); the sixth gets cut off at the limiter.
	for i := 0; i < 5; i++ {
		resp, err := httpClient().Get(url)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	resp, err := httpClient().Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	require.Equal(t, int32(0), env.idp.tokenHits.Load())
}

func TestRateLimitScopedPerEndpoint(t *testing.T) {
	env := newTestEnv(t, domain.SessionModeJWT)

	// Exhaust the callback limiter.
	url := env.server.URL + "/api/oauth2/oidc/callback?state=junk&code=junk"
	for i := 0; i < 6; i++ {
		resp, err := httpClient().Get(url)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// Other endpoints keep their own budgets.
	resp, err := httpClient().Get(env.server.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
