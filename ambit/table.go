// Package ambit is the scoped load/unload guard around a Handle
// (spec.md section 4.3, "Ambit"): it is the only thing in the tree
// that touches the block store directly, turning an opaque address
// into a live, decrypted, decoded node and back again.
//
// Grounded on the teacher's nodeStoreBuffered (iotaledger-trie.go/
// mutable/nodestore.go): a small in-process cache sitting in front of
// the backing store, here generalized to track a load refcount per
// handle so a node loaded twice in the same recursive walk (Check
// revisiting a shared child, for instance) is decoded once.
package ambit

import (
	"bytes"
	"context"
	"sync"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/address"
	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/factory"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/wire"
)

type entry[K any] struct {
	node     nodule.Nodule[K]
	secret   crypto.Secret
	refcount int
}

// Table is a nodule.Loader[K] backed by a block.Store. One Table is
// shared by every node recursion within a single tree.
type Table[K any] struct {
	store     block.Store
	networkID []byte
	codec     nodule.KeyCodec[K]

	mu   sync.Mutex
	live map[address.Address]*entry[K]
}

var _ nodule.Loader[uint64] = (*Table[uint64])(nil)

func New[K any](store block.Store, networkID []byte, codec nodule.KeyCodec[K]) *Table[K] {
	return &Table[K]{
		store:     store,
		networkID: networkID,
		codec:     codec,
		live:      make(map[address.Address]*entry[K]),
	}
}

// Load decodes the node at h, decrypting and verifying its content
// hash first. A second Load of a handle already outstanding in this
// Table returns the same live node and bumps its refcount, rather than
// decoding a second, divergent copy.
func (t *Table[K]) Load(ctx context.Context, h nodule.Handle) (nodule.Nodule[K], error) {
	t.mu.Lock()
	if e, ok := t.live[h.Addr]; ok {
		e.refcount++
		t.mu.Unlock()
		return e.node, nil
	}
	t.mu.Unlock()

	framed, err := t.store.Get(ctx, h.Addr)
	if err != nil {
		return nil, xerrors.Errorf("ambit: load %s: %w", h.Addr, err)
	}
	hdr, payload, err := address.Open(t.networkID, h.Addr, h.Secret, framed)
	if err != nil {
		return nil, xerrors.Errorf("ambit: load %s: %w", h.Addr, err)
	}
	node, err := factory.Decode[K](hdr, payload, t.codec)
	if err != nil {
		return nil, xerrors.Errorf("ambit: load %s: %w", h.Addr, err)
	}

	t.mu.Lock()
	if e, ok := t.live[h.Addr]; ok {
		// Lost the race with a concurrent Load of the same handle; keep
		// the winner, discard our decode.
		e.refcount++
		t.mu.Unlock()
		return e.node, nil
	}
	t.live[h.Addr] = &entry[K]{node: node, secret: h.Secret, refcount: 1}
	t.mu.Unlock()
	return node, nil
}

// Unload releases one reference to the node at *h. On the outermost
// unload, a Dirty node is re-encoded, sealed under a fresh content
// address, written to the store, and *h is rebound to that address.
// The block at the stale address is left in place: content-hash blocks
// are immutable once written (spec.md section 7), so a StoreFailed
// partway through a multi-node rebind cascade must still find the
// pre-operation tree intact at its old root. Reclaiming blocks that no
// live handle references anymore is a standalone garbage-collection
// pass, not something safe to do inline with every mutation (spec.md
// section 1 excludes orphan collection from this package's scope).
func (t *Table[K]) Unload(ctx context.Context, h *nodule.Handle, n nodule.Nodule[K]) error {
	old := h.Addr
	t.mu.Lock()
	e, ok := t.live[old]
	if !ok {
		t.mu.Unlock()
		return xerrors.Errorf("ambit: unload %s: %w: not outstanding", old, nodule.ErrInvariantViolation)
	}
	e.refcount--
	if e.refcount > 0 {
		t.mu.Unlock()
		return nil
	}
	delete(t.live, old)
	t.mu.Unlock()

	if n.State() != nodule.Dirty {
		return nil
	}

	newHandle, err := t.store_(ctx, e.secret, n)
	if err != nil {
		return xerrors.Errorf("ambit: unload %s: %w", old, err)
	}
	n.SetState(nodule.Consistent)
	*h = newHandle
	return nil
}

// Release drops one reference to a loaded handle without re-encoding or
// persisting it, for a node that was loaded only to be absorbed into a
// sibling (spec.md section 4.7 step 4, sibling merge) rather than
// unloaded back onto its own handle. Its block, like any other
// superseded block, is simply left in place.
func (t *Table[K]) Release(h nodule.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.live[h.Addr]
	if !ok {
		return
	}
	e.refcount--
	if e.refcount <= 0 {
		delete(t.live, h.Addr)
	}
}

// Store seals and persists a brand-new node (one with no prior handle,
// e.g. a freshly Created seam or quill) and returns its handle.
func (t *Table[K]) Store(ctx context.Context, secret crypto.Secret, n nodule.Nodule[K]) (nodule.Handle, error) {
	h, err := t.store_(ctx, secret, n)
	if err != nil {
		return nodule.Handle{}, err
	}
	n.SetState(nodule.Consistent)
	return h, nil
}

// StoreValue seals and persists an opaque payload (not a Seam or
// Quill) under a fresh secret, for callers that use the tree purely as
// a key -> content-addressed-blob index (protonctl put).
func (t *Table[K]) StoreValue(ctx context.Context, payload []byte) (nodule.Handle, error) {
	secret, err := crypto.NewSecret()
	if err != nil {
		return nodule.Handle{}, err
	}
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: wire.ComponentValue}
	framed, addr, err := address.Encode(t.networkID, hdr, secret, payload)
	if err != nil {
		return nodule.Handle{}, err
	}
	if err := t.store.Put(ctx, addr, framed); err != nil {
		return nodule.Handle{}, err
	}
	return nodule.Handle{Addr: addr, Secret: secret}, nil
}

// LoadValue reverses StoreValue: fetch, verify and decrypt a value
// handle's block without attempting to decode it as a Seam or Quill.
func (t *Table[K]) LoadValue(ctx context.Context, h nodule.Handle) ([]byte, error) {
	framed, err := t.store.Get(ctx, h.Addr)
	if err != nil {
		return nil, xerrors.Errorf("ambit: load value %s: %w", h.Addr, err)
	}
	_, payload, err := address.Open(t.networkID, h.Addr, h.Secret, framed)
	if err != nil {
		return nil, xerrors.Errorf("ambit: load value %s: %w", h.Addr, err)
	}
	return payload, nil
}

func (t *Table[K]) store_(ctx context.Context, secret crypto.Secret, n nodule.Nodule[K]) (nodule.Handle, error) {
	var buf bytes.Buffer
	if err := n.EncodeCanonical(&buf); err != nil {
		return nodule.Handle{}, err
	}
	hdr := wire.Header{Family: wire.FamilyContentHash, Component: factory.Component[K](n)}
	framed, addr, err := address.Encode(t.networkID, hdr, secret, buf.Bytes())
	if err != nil {
		return nodule.Handle{}, err
	}
	if err := t.putIfAbsent(ctx, addr, framed); err != nil {
		return nodule.Handle{}, err
	}
	return nodule.Handle{Addr: addr, Secret: secret}, nil
}

// putIfAbsent writes framed to the store unless a block already sits
// at addr. Sealing draws a fresh nonce on every call, so two encodes of
// the same logical node almost never land on the same address; this
// guards the one case that matters in practice, a retried Unload after
// a prior attempt's Put succeeded but something downstream of it
// failed, from writing over a block already durable at that address.
func (t *Table[K]) putIfAbsent(ctx context.Context, addr address.Address, framed []byte) error {
	exists, err := t.store.Exists(ctx, addr)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return t.store.Put(ctx, addr, framed)
}
