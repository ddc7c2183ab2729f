package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateSignerRoundTrip(t *testing.T) {
	signer, err := NewStateSigner([]byte("master-secret"))
	require.NoError(t, err)

	state := signer.Sign("01J9NONCE")
	nonce, err := signer.Verify(state)
	require.NoError(t, err)
	require.Equal(t, "01J9NONCE", nonce)
}

func TestStateSignerRejectsTampering(t *testing.T) {
	signer, err := NewStateSigner([]byte("master-secret"))
	require.NoError(t, err)

	state := signer.Sign("01J9NONCE")

	t.Run("modified nonce", func(t *testing.T) {
		_, err := signer.Verify("01J9OTHER" + state[len("01J9NONCE"):])
		require.ErrorIs(t, err, ErrStateSignature)
	})

	t.Run("truncated signature", func(t *testing.T) {
		_, err := signer.Verify(state[:len(state)-4])
		require.ErrorIs(t, err, ErrStateSignature)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := signer.Verify("no-separator-at-all")
		require.ErrorIs(t, err, ErrStateSignature)
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := signer.Verify("")
		require.ErrorIs(t, err, ErrStateSignature)
	})
}

func TestStateSignerKeysAreIndependent(t *testing.T) {
	a, err := NewStateSigner([]byte("secret-a"))
	require.NoError(t, err)
	b, err := NewStateSigner([]byte("secret-b"))
	require.NoError(t, err)

	state := a.Sign("01J9NONCE")
	_, err = b.Verify(state)
	require.ErrorIs(t, err, ErrStateSignature)
}

func TestDeriveKey(t *testing.T) {
	t.Run("deterministic per purpose", func(t *testing.T) {
		k1, err := DeriveKey([]byte("secret"), "purpose-a", 32)
		require.NoError(t, err)
		k2, err := DeriveKey([]byte("secret"), "purpose-a", 32)
		require.NoError(t, err)
		require.Equal(t, k1, k2)
	})

	t.Run("distinct purposes give distinct keys", func(t *testing.T) {
		k1, err := DeriveKey([]byte("secret"), "purpose-a", 32)
		require.NoError(t, err)
		k2, err := DeriveKey([]byte("secret"), "purpose-b", 32)
		require.NoError(t, err)
		require.NotEqual(t, k1, k2)
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := DeriveKey(nil, "purpose", 32)
		require.Error(t, err)
	})
}
