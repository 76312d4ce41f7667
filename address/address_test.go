package address

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/wire"
)

var networkID = []byte("test-network")

func TestEncodeOpenRoundTrip(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentQuill}
	canonical := []byte("canonical quill body")

	framed, addr, err := Encode(networkID, hdr, secret, canonical)
	require.NoError(t, err)
	require.False(t, addr.IsNull())

	gotHdr, gotCanonical, err := Open(networkID, addr, secret, framed)
	require.NoError(t, err)
	require.Equal(t, hdr, gotHdr)
	require.Equal(t, canonical, gotCanonical)
}

func TestVerifyDetectsTamperedFrame(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentSeam}

	framed, addr, err := Encode(networkID, hdr, secret, []byte("body"))
	require.NoError(t, err)

	framed[len(framed)-1] ^= 0xFF
	err = Verify(networkID, addr, framed)
	require.ErrorIs(t, err, ErrCorruptBlock)
}

func TestOpenDetectsWrongSecret(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	other, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentSeam}

	framed, addr, err := Encode(networkID, hdr, secret, []byte("body"))
	require.NoError(t, err)

	_, _, err = Open(networkID, addr, other, framed)
	require.ErrorIs(t, err, ErrCorruptBlock)
}

func TestDifferentPayloadsYieldDifferentAddresses(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentQuill}

	_, addrA, err := Encode(networkID, hdr, secret, []byte("payload-a"))
	require.NoError(t, err)
	_, addrB, err := Encode(networkID, hdr, secret, []byte("payload-b"))
	require.NoError(t, err)

	require.NotEqual(t, addrA, addrB)
}

func TestDifferentNetworkIDsYieldDifferentAddresses(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentQuill}

	_, addrA, err := Encode([]byte("network-a"), hdr, secret, []byte("payload"))
	require.NoError(t, err)
	_, addrB, err := Encode([]byte("network-b"), hdr, secret, []byte("payload"))
	require.NoError(t, err)

	require.NotEqual(t, addrA, addrB)
}

func TestAddressTextMarshalRoundTrip(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentQuill}
	_, addr, err := Encode(networkID, hdr, secret, []byte("payload"))
	require.NoError(t, err)

	text, err := addr.MarshalText()
	require.NoError(t, err)

	var got Address
	require.NoError(t, got.UnmarshalText(text))
	require.Equal(t, addr, got)
}

func TestNullAddressIsNull(t *testing.T) {
	require.True(t, Null.IsNull())
	var zero Address
	require.True(t, zero.IsNull())
}
