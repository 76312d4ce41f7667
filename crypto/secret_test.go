package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)

	plaintext := []byte("a proton node body")
	ciphertext, err := Seal(secret, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	got, err := Open(secret, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestOpenFailsUnderWrongSecret(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)
	other, err := NewSecret()
	require.NoError(t, err)

	ciphertext, err := Seal(secret, []byte("payload"))
	require.NoError(t, err)

	_, err = Open(other, ciphertext)
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestOpenFailsOnTamperedCiphertext(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)

	ciphertext, err := Seal(secret, []byte("payload"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	_, err = Open(secret, ciphertext)
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestSealIsNondeterministicInNonce(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)

	a, err := Seal(secret, []byte("same plaintext"))
	require.NoError(t, err)
	b, err := Seal(secret, []byte("same plaintext"))
	require.NoError(t, err)
	require.NotEqual(t, a, b, "fresh random nonce each call")
}

func TestDeriveSecretIsDeterministic(t *testing.T) {
	parent, err := NewSecret()
	require.NoError(t, err)

	a, err := DeriveSecret(parent, []byte("label"))
	require.NoError(t, err)
	b, err := DeriveSecret(parent, []byte("label"))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := DeriveSecret(parent, []byte("different-label"))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
