package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCodeVerifier(t *testing.T) {
	v1, err := NewCodeVerifier()
	require.NoError(t, err)
	require.Len(t, v1, 43) // 32 bytes base64url without padding

	v2, err := NewCodeVerifier()
	require.NoError(t, err)
	require.NotEqual(t, v1, v2, "verifiers should be unique")
}

func TestVerifyCodeVerifier(t *testing.T) {
	t.Run("S256 verifier matches its challenge", func(t *testing.T) {
		verifier, err := NewCodeVerifier()
		require.NoError(t, err)

		challenge := ChallengeS256(verifier)
		require.True(t, VerifyCodeVerifier(challenge, PKCEMethodS256, verifier))
		require.False(t, VerifyCodeVerifier(challenge, PKCEMethodS256, "wrong"))
	})

	t.Run("empty method defaults to S256", func(t *testing.T) {
		challenge := ChallengeS256("example-verifier")
		require.True(t, VerifyCodeVerifier(challenge, "", "example-verifier"))
	})

	t.Run("plain verifier must equal challenge", func(t *testing.T) {
		require.True(t, VerifyCodeVerifier("verifier", PKCEMethodPlain, "verifier"))
		require.False(t, VerifyCodeVerifier("verifier", PKCEMethodPlain, "other"))
	})

	t.Run("empty challenge accepts any verifier", func(t *testing.T) {
		require.True(t, VerifyCodeVerifier("", PKCEMethodS256, ""))
		require.True(t, VerifyCodeVerifier("", "", "anything"))
	})

	t.Run("missing verifier rejected when challenge present", func(t *testing.T) {
		challenge := ChallengeS256("data")
		require.False(t, VerifyCodeVerifier(challenge, PKCEMethodS256, ""))
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		require.False(t, VerifyCodeVerifier("abc", "S123", "abc"))
	})
}
