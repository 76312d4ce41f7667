package ambit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/seam"
)

var networkID = []byte("ambit-test-network")

func newTable(t *testing.T) *Table[uint64] {
	t.Helper()
	return New[uint64](block.NewMemStore(), networkID, nodule.Uint64Codec{})
}

func TestStoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))

	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)
	require.Equal(t, nodule.Consistent, s.State())

	loaded, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	require.Equal(t, nodule.KindSeam, loaded.Kind())
}

func TestLoadSameHandleTwiceSharesLiveNodeAndRefcounts(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)

	first, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	second, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	require.Same(t, first, second, "a handle already outstanding must return the same live node")

	require.NoError(t, tbl.Unload(ctx, &h, second))
	require.NoError(t, tbl.Unload(ctx, &h, first))
}

func TestUnloadCleanNodeIsNoop(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)

	loaded, err := tbl.Load(ctx, h)
	require.NoError(t, err)

	before := h
	require.NoError(t, tbl.Unload(ctx, &h, loaded))
	require.Equal(t, before, h, "a clean node's handle must not change on unload")
}

func TestUnloadDirtyNodeRebindsToNewAddress(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)

	loaded, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	loadedSeam := loaded.(*seam.Seam[uint64])
	require.NoError(t, loadedSeam.Link(2, nodule.Handle{}))
	require.Equal(t, nodule.Dirty, loadedSeam.State())

	old := h
	require.NoError(t, tbl.Unload(ctx, &h, loadedSeam))
	require.NotEqual(t, old.Addr, h.Addr, "mutated content must hash to a new address")
	require.Equal(t, nodule.Consistent, loadedSeam.State())

	reloaded, err := tbl.Load(ctx, old)
	require.NoError(t, err, "the stale block must remain readable: blocks are immutable, not garbage-collected inline")
	require.Equal(t, nodule.KindSeam, reloaded.Kind())
}

func TestUnloadRejectsHandleNotOutstanding(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)
	s := seam.New[uint64](nodule.Uint64Codec{})
	var h nodule.Handle

	err := tbl.Unload(ctx, &h, s)
	require.ErrorIs(t, err, nodule.ErrInvariantViolation)
}

func TestReleaseDropsReferenceWithoutPersisting(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))
	secret, err := crypto.NewSecret()
	require.NoError(t, err)
	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)

	loaded, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	loadedSeam := loaded.(*seam.Seam[uint64])
	require.NoError(t, loadedSeam.Link(2, nodule.Handle{}))
	require.Equal(t, nodule.Dirty, loadedSeam.State())

	tbl.Release(h)

	// the dirty mutation above was never unloaded, so it was never
	// persisted: a fresh load of the original handle still decodes the
	// original, unmutated block.
	reloaded, err := tbl.Load(ctx, h)
	require.NoError(t, err)
	reloadedSeam := reloaded.(*seam.Seam[uint64])
	require.Equal(t, 1, reloadedSeam.Len())
}

func TestStorePutIfAbsentSkipsAnAlreadyPresentBlock(t *testing.T) {
	// Sealing draws a fresh nonce per call, so two Stores of equal
	// content never land on the same address in practice; exercise the
	// putIfAbsent skip directly by pre-seeding the store at the address
	// a Store call is about to use, the retried-Unload scenario it
	// guards against.
	ctx := context.Background()
	store := block.NewMemStore()
	tbl := New[uint64](store, networkID, nodule.Uint64Codec{})

	s := seam.New[uint64](nodule.Uint64Codec{})
	require.NoError(t, s.Link(1, nodule.Handle{}))
	secret, err := crypto.NewSecret()
	require.NoError(t, err)

	h, err := tbl.Store(ctx, secret, s)
	require.NoError(t, err)

	// Overwrite the block already at h.Addr with a sentinel, then ask
	// putIfAbsent to write the original bytes there again: it must see
	// the address already occupied and skip the write, leaving the
	// sentinel in place.
	require.NoError(t, store.Put(ctx, h.Addr, []byte("sentinel")))
	require.NoError(t, tbl.putIfAbsent(ctx, h.Addr, []byte("would-be-original-bytes")))

	got, err := store.Get(ctx, h.Addr)
	require.NoError(t, err)
	require.Equal(t, []byte("sentinel"), got, "putIfAbsent must not overwrite a block already present at the address")
}

func TestStoreValueLoadValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	payload := []byte("opaque caller payload")
	h, err := tbl.StoreValue(ctx, payload)
	require.NoError(t, err)

	got, err := tbl.LoadValue(ctx, h)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestStoreValueUsesAFreshSecretEachCall(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t)

	hA, err := tbl.StoreValue(ctx, []byte("same"))
	require.NoError(t, err)
	hB, err := tbl.StoreValue(ctx, []byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, hA, hB, "each StoreValue call seals under its own random secret and nonce")

	gotA, err := tbl.LoadValue(ctx, hA)
	require.NoError(t, err)
	gotB, err := tbl.LoadValue(ctx, hB)
	require.NoError(t, err)
	require.Equal(t, gotA, gotB)
}
