package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinit-contrib/proton/address"
)

func TestMemStorePutGetExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	var addr address.Address
	addr[0] = 0xAB

	_, err := s.Get(ctx, addr)
	require.ErrorIs(t, err, ErrNotFound)
	ok, err := s.Exists(ctx, addr)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(ctx, addr, []byte("hello")))
	require.Equal(t, 1, s.Len())

	got, err := s.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	ok, err = s.Exists(ctx, addr)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemStoreEachVisitsEveryBlock(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	var a, b address.Address
	a[0], b[0] = 1, 2
	require.NoError(t, s.Put(ctx, a, []byte("a")))
	require.NoError(t, s.Put(ctx, b, []byte("b")))

	seen := map[address.Address][]byte{}
	require.NoError(t, s.Each(ctx, func(addr address.Address, framed []byte) error {
		seen[addr] = framed
		return nil
	}))
	require.Equal(t, map[address.Address][]byte{a: []byte("a"), b: []byte("b")}, seen)
}

func TestMemStoreGetCopiesOutNotAliasStoredBytes(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	var addr address.Address
	addr[0] = 1

	require.NoError(t, s.Put(ctx, addr, []byte("hello")))
	got, err := s.Get(ctx, addr)
	require.NoError(t, err)
	got[0] = 'X'

	got2, err := s.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got2, "mutating a prior Get result must not affect the store")
}
