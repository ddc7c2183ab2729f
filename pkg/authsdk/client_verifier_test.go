package authsdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/cryptox"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// jwksServer serves whatever key set the test swaps in, counting fetches.
type jwksServer struct {
	keys    atomic.Pointer[jwtx.KeySet]
	fetches atomic.Int64
}

func (s *jwksServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.keys.Load().PublicJWKS())
	})
}

func newEdDSASigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func sessionToken(t *testing.T, signer jwtx.Signer, issuer string, aud []string) string {
	t.Helper()
	claims := jwtx.NewSessionClaims(
		"user-1", "sess-1", "user@mysingle.io", true, "User", "google",
		[]string{"profile:read"}, time.Minute, issuer, aud, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestRemoteVerifier(t *testing.T) {
	signer := newEdDSASigner(t, "key-a")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	srv := &jwksServer{}
	srv.keys.Store(keys)
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := authsdk.NewSDKClient(ts.URL)
	verifier, err := authsdk.NewRemoteVerifier(
		context.Background(), client, jwtx.AlgorithmEdDSA, "mysingle-auth", []string{"mysingle-api"},
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.fetches.Load())

	t.Run("valid credential", func(t *testing.T) {
		token := sessionToken(t, signer, "mysingle-auth", []string{"mysingle-api"})

		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "user@mysingle.io", claims.Email)

		// Keys were cached, no refetch on the happy path.
		require.EqualValues(t, 1, srv.fetches.Load())
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		token := sessionToken(t, signer, "someone-else", []string{"mysingle-api"})

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience rejected", func(t *testing.T) {
		token := sessionToken(t, signer, "mysingle-auth", []string{"other-api"})

		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("unknown kid triggers refetch", func(t *testing.T) {
		// Rotate: a new signer the verifier hasn't seen.
		rotated := newEdDSASigner(t, "key-b")
		newKeys := jwtx.NewKeySet()
		require.NoError(t, newKeys.AddSigner(signer))
		require.NoError(t, newKeys.AddSigner(rotated))
		srv.keys.Store(newKeys)

		before := srv.fetches.Load()
		token := sessionToken(t, rotated, "mysingle-auth", []string{"mysingle-api"})

		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Greater(t, srv.fetches.Load(), before)
	})

	t.Run("token from a key never published fails", func(t *testing.T) {
		rogue := newEdDSASigner(t, "rogue")
		token := sessionToken(t, rogue, "mysingle-auth", []string{"mysingle-api"})

		_, err := verifier.Verify(token)
		require.Error(t, err)
	})
}

func TestSessionScopeChecking(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server")
	}))
	defer ts.Close()

	client := authsdk.NewSDKClient(ts.URL)
	session := client.NewSessionFromCredential("token", []string{"profile:read"}, time.Now().Add(time.Hour))

	require.True(t, session.HasScope("profile:read"))
	require.False(t, session.HasScope("admin:write"))
	require.True(t, session.HasAnyScope("admin:write", "profile:read"))
	require.False(t, session.HasAllScopes("profile:read", "admin:write"))

	// Missing scope fails before any HTTP call.
	_, err := session.RotateKey(context.Background(), authsdk.RotateKeyRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "admin:write")
}

func TestSessionExpiredCredential(t *testing.T) {
	client := authsdk.NewSDKClient("http://auth.invalid")
	session := client.NewSessionFromCredential("token", []string{"profile:read"}, time.Now().Add(-time.Minute))

	require.True(t, session.Expired())

	_, err := session.GetUserInfo(context.Background())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)
}
