package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	httpapi "github.com/mysingle/auth/internal/auth/http"
	"github.com/mysingle/auth/internal/auth/provider"
	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/internal/auth/store/drivers/sqlite"
	"github.com/mysingle/auth/pkg/cryptox"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/idx"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests run the auth service in-process behind httptest, with a
 * fake upstream identity provider standing in for Google/Kakao/Naver. Each
 * test boots its own environment: fresh in-memory database, fresh signing
 * keys, fresh rate limiter state.
 */

const (
	testIssuer   = "mysingle-auth"
	testAudience = "mysingle-api"
	testEmail    = "user@mysingle.io"
	testSubject  = "upstream-sub-1"
)

// fakeIdP is the upstream identity provider: a token endpoint that hands out
// an unsigned ID token and a userinfo endpoint, plus a hit counter so tests
// can assert that rejected callbacks never reach the token endpoint.
type fakeIdP struct {
	server    *httptest.Server
	tokenHits atomic.Int32

	// Claims asserted about the user who "logged in" upstream.
	subject       string
	email         string
	emailVerified bool
	name          string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		subject:       testSubject,
		email:         testEmail,
		emailVerified: true,
		name:          "Some User",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		idp.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "upstream-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idp.idToken(t),
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            idp.subject,
			"email":          idp.email,
			"email_verified": idp.emailVerified,
			"name":           idp.name,
		})
	})

	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

// idToken builds an unsigned (alg=none) ID token. Identity derivation does
// not verify provider token signatures, it trusts the TLS channel, so this
// is enough for the flow to complete.
func (idp *fakeIdP) idToken(t *testing.T) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]any{
		"sub":            idp.subject,
		"email":          idp.email,
		"email_verified": idp.emailVerified,
		"name":           idp.name,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

// testEnv is one in-process auth service instance plus its fake provider.
type testEnv struct {
	server *httptest.Server
	idp    *fakeIdP

	store    store.Store
	sessions *service.SessionService
	keys     *jwtx.KeyManager
}

func newTestEnv(t *testing.T, sessionMode string) *testEnv {
	t.Helper()

	idp := newFakeIdP(t)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		Audience:  []string{testAudience},
		NumKeys:   1,
	})
	require.NoError(t, err)

	states, err := cryptox.NewStateSigner([]byte("e2e-master-secret"))
	require.NoError(t, err)

	sessions := &service.SessionService{
		Store:      st,
		KeyManager: keyManager,
		Mode:       sessionMode,
		Issuer:     testIssuer,
		Audience:   []string{testAudience},
		TTL:        time.Hour,
	}

	oidc, err := provider.NewOIDC(provider.Config{
		Name:             "oidc",
		ClientID:         "e2e-client",
		ClientSecret:     "e2e-secret",
		RedirectURI:      "http://localhost/api/oauth2/oidc/callback",
		AuthorizationURL: idp.server.URL + "/authorize",
		TokenURL:         idp.server.URL + "/token",
		UserInfoURL:      idp.server.URL + "/userinfo",
	})
	require.NoError(t, err)

	login := &service.LoginService{
		Store:     st,
		Providers: map[string]provider.Provider{"oidc": oidc},
		States:    states,
		Sessions:  sessions,
		StateTTL:  10 * time.Minute,
	}

	logger := slogx.New(slogx.Config{Service: "auth-service", Level: "error", Format: "text"})

	router := httpapi.NewRouter(keyManager.KeySet, keyManager.Verifier, testIssuer, "e2e", st, logger)
	router.LoginService = login
	router.SessionService = sessions
	router.UserService = &service.UserService{Store: st}
	router.KeyRotationService = &service.KeyRotationService{
		KeyManager: keyManager,
		Algorithm:  jwtx.AlgorithmEdDSA,
	}
	router.CookieOpts = httpx.CookieOptions{Secure: false}
	router.PostLoginURL = "/welcome"
	router.ErrorURL = "/login/error"
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		server:   server,
		idp:      idp,
		store:    st,
		sessions: sessions,
		keys:     keyManager,
	}
}

// httpClient returns a client that reports redirects instead of following
// them, so tests can inspect Location headers and Set-Cookie.
func httpClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// beginLogin hits the login endpoint and returns the state handed to the
// provider, extracted from the redirect the browser would follow.
func (env *testEnv) beginLogin(t *testing.T, returnTo string) string {
	t.Helper()

	loginURL := env.server.URL + "/api/oauth2/oidc/login"
	if returnTo != "" {
		loginURL += "?return_to=" + url.QueryEscape(returnTo)
	}

	resp, err := httpClient().Get(loginURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	require.NotEmpty(t, location.Query().Get("code_challenge"))
	return state
}

// completeLogin carries a state through the callback and returns the
// response, without asserting success.
func (env *testEnv) completeLogin(t *testing.T, state string) *http.Response {
	t.Helper()

	callbackURL := env.server.URL + "/api/oauth2/oidc/callback?state=" +
		url.QueryEscape(state) + "&code=e2e-code"
	resp, err := httpClient().Get(callbackURL)
	require.NoError(t, err)
	return resp
}

// login runs the whole flow and returns the session credential from the
// cookie the callback set.
func (env *testEnv) login(t *testing.T) string {
	t.Helper()

	state := env.beginLogin(t, "")
	resp := env.completeLogin(t, state)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == httpx.SessionCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("callback did not set a session cookie")
	return ""
}

// issueSessionFor creates a user row directly and issues a session for it,
// bypassing the login flow. Used for admin (superuser) credentials.
func (env *testEnv) issueSessionFor(t *testing.T, superuser bool) string {
	t.Helper()

	ctx := context.Background()
	now := time.Now()
	user := domain.User{
		ID:              idx.New().String(),
		Provider:        "oidc",
		ProviderSubject: "fixture-" + idx.New().String(),
		Email:           "admin@mysingle.io",
		EmailVerified:   true,
		DisplayName:     "Admin User",
		IsActive:        true,
		IsSuperuser:     superuser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, env.store.Users().CreateUser(ctx, user))

	credential, err := env.sessions.Issue(ctx, user)
	require.NoError(t, err)
	return credential.Token
}
