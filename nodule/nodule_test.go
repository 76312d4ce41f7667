package nodule

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinit-contrib/proton/address"
	"github.com/infinit-contrib/proton/crypto"
)

func TestAssertPanicsOnFalse(t *testing.T) {
	require.Panics(t, func() {
		Assert(false, "boom %d", 42)
	})
	require.NotPanics(t, func() {
		Assert(true, "fine")
	})
}

func TestHandleNullAndRebind(t *testing.T) {
	var h Handle
	require.True(t, h.IsNull())

	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h.Secret = secret
	require.False(t, h.IsNull())

	var addr address.Address
	addr[0] = 7
	rebound := h.Rebind(addr)
	require.Equal(t, addr, rebound.Addr)
	require.Equal(t, secret, rebound.Secret)
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	var addr address.Address
	addr[3] = 9
	parent := Handle{Addr: addr, Secret: secret}

	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, parent, Dirty, 123))

	gotParent, gotFootprint, err := DecodeHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, parent, gotParent)
	require.Equal(t, 123, gotFootprint)
}

func TestInletEncodeDecodeRoundTrip(t *testing.T) {
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	var addr address.Address
	addr[1] = 5
	in := Inlet[uint64]{Key: 42, Value: Handle{Addr: addr, Secret: secret}, Footprint: 99}

	var buf bytes.Buffer
	codec := Uint64Codec{}
	require.NoError(t, EncodeInlet(&buf, codec, in))

	got, err := DecodeInlet(&buf, codec)
	require.NoError(t, err)
	require.Equal(t, in.Key, got.Key)
	require.Equal(t, in.Value, got.Value)
	require.Equal(t, InletFootprint(codec, in.Key), got.Footprint)
}

func TestInletFootprintAccountsForHandleSize(t *testing.T) {
	codec := Uint64Codec{}
	fp := InletFootprint[uint64](codec, 1)
	require.Equal(t, codec.SizeKey(1)+len(address.Address{})+len(crypto.Secret{}), fp)
}

func TestUint64CodecRoundTripAndOrder(t *testing.T) {
	codec := Uint64Codec{}
	var buf bytes.Buffer
	require.NoError(t, codec.WriteKey(&buf, 0xFEEDFACE))
	got, err := codec.ReadKey(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xFEEDFACE, got)

	require.True(t, codec.Less(1, 2))
	require.False(t, codec.Less(2, 1))
	require.Equal(t, 8, codec.SizeKey(0))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Clean", Clean.String())
	require.Equal(t, "Dirty", Dirty.String())
	require.Equal(t, "Consistent", Consistent.String())
	require.Equal(t, "State(?)", State(99).String())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "Seam", KindSeam.String())
	require.Equal(t, "Quill", KindQuill.String())
	require.Equal(t, "Kind(?)", Kind(0).String())
}
