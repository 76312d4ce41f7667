package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignerSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner(CryptosystemSchnorr)
	pub, err := signer.PublicKey()
	require.NoError(t, err)

	msg := []byte("root handle to publish")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	require.NoError(t, VerifyWithPublicKey(pub, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	signer := NewSigner(CryptosystemSchnorr)
	pub, err := signer.PublicKey()
	require.NoError(t, err)

	sig, err := signer.Sign([]byte("original"))
	require.NoError(t, err)

	err = VerifyWithPublicKey(pub, []byte("tampered"), sig)
	require.Error(t, err)
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	signer := NewSigner(CryptosystemSchnorr)
	other := NewSigner(CryptosystemSchnorr)
	otherPub, err := other.PublicKey()
	require.NoError(t, err)

	msg := []byte("message")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	err = VerifyWithPublicKey(otherPub, msg, sig)
	require.Error(t, err)
}

func TestNewSignerPanicsOnUnknownCryptosystem(t *testing.T) {
	require.Panics(t, func() {
		NewSigner(Cryptosystem(99))
	})
}

func TestCryptosystemStringPanicsOnUnknownValue(t *testing.T) {
	require.Panics(t, func() {
		_ = Cryptosystem(99).String()
	})
}
