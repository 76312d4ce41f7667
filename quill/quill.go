// Package quill implements Quill, the terminal (leaf) node of the
// proton tree: inlets here map keys directly to user value handles
// rather than to further child nodules.
//
// Grounded on the same container/footprint discipline as package seam
// (original_source/XXX/Seam.hxx), specialized to a non-recursive
// Search: a Quill resolves key by itself rather than routing further.
package quill

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/internal/omap"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/wire"
)

// Quill is a generic leaf node keyed by K.
type Quill[K any] struct {
	codec     nodule.KeyCodec[K]
	parent    nodule.Handle
	state     nodule.State
	inlets    *omap.Map[K, nodule.Inlet[K]]
	footprint int
}

var _ nodule.Nodule[uint64] = (*Quill[uint64])(nil)

func headerFootprint() int {
	return wire.MustSize(func(w io.Writer) error {
		if err := nodule.EncodeHeader(w, nodule.Handle{}, nodule.Clean, 0); err != nil {
			return err
		}
		return wire.WriteUint32(w, 0)
	})
}

// New creates an empty, Dirty quill.
func New[K any](codec nodule.KeyCodec[K]) *Quill[K] {
	return &Quill[K]{
		codec:     codec,
		inlets:    omap.New[K, nodule.Inlet[K]](codec.Less),
		state:     nodule.Dirty,
		footprint: headerFootprint(),
	}
}

func (q *Quill[K]) Kind() nodule.Kind { return nodule.KindQuill }

func (q *Quill[K]) Parent() nodule.Handle     { return q.parent }
func (q *Quill[K]) SetParent(h nodule.Handle) { q.parent = h }

func (q *Quill[K]) State() nodule.State      { return q.state }
func (q *Quill[K]) SetState(st nodule.State) { q.state = st }

func (q *Quill[K]) Footprint() int { return q.footprint }

func (q *Quill[K]) Len() int { return q.inlets.Len() }

func (q *Quill[K]) Mayor() (K, bool) {
	k, _, ok := q.inlets.Max()
	return k, ok
}

func (q *Quill[K]) Minor() (K, bool) {
	k, _, ok := q.inlets.Min()
	return k, ok
}

func (q *Quill[K]) Maiden() (K, bool) {
	if q.inlets.Len() != 1 {
		var zero K
		return zero, false
	}
	k, _, _ := q.inlets.Min()
	return k, true
}

// Lookup returns the value handle stored at key, if present.
func (q *Quill[K]) Lookup(key K) (nodule.Handle, bool) {
	in, ok := q.inlets.Get(key)
	if !ok {
		return nodule.Handle{}, false
	}
	return in.Value, true
}

// Link inserts key -> value. It returns ErrDuplicateKey if key is
// already present (spec.md section 4.6, "Insert").
func (q *Quill[K]) Link(key K, value nodule.Handle) error {
	fp := nodule.InletFootprint(q.codec, key)
	in := nodule.Inlet[K]{Key: key, Value: value, Footprint: fp}
	if !q.inlets.Insert(key, in) {
		return xerrors.Errorf("quill: link %v: %w", key, nodule.ErrDuplicateKey)
	}
	q.footprint += fp
	q.state = nodule.Dirty
	return nil
}

// Rebind updates the value handle stored at key.
func (q *Quill[K]) Rebind(key K, value nodule.Handle) error {
	in, ok := q.inlets.Get(key)
	if !ok {
		return xerrors.Errorf("quill: rebind %v: %w", key, nodule.ErrNotFound)
	}
	in.Value = value
	q.inlets.Insert(key, in)
	q.state = nodule.Dirty
	return nil
}

// Unlink removes key (spec.md section 4.6, "Delete").
func (q *Quill[K]) Unlink(key K) error {
	in, ok := q.inlets.Get(key)
	if !ok {
		return xerrors.Errorf("quill: unlink %v: %w", key, nodule.ErrNotFound)
	}
	q.inlets.Delete(key)
	q.footprint -= in.Footprint
	q.state = nodule.Dirty
	return nil
}

func (q *Quill[K]) Update(oldKey, newKey K) (bool, error) {
	if !q.codec.Less(oldKey, newKey) && !q.codec.Less(newKey, oldKey) {
		return false, nil
	}
	before, _ := q.Mayor()
	if !q.inlets.Rekey(oldKey, newKey) {
		return false, xerrors.Errorf("quill: update %v -> %v: %w", oldKey, newKey, nodule.ErrNotFound)
	}
	q.state = nodule.Dirty
	after, _ := q.Mayor()
	changed := q.codec.Less(before, after) || q.codec.Less(after, before)
	return changed, nil
}

func (q *Quill[K]) Propagate(ctx context.Context, loader nodule.Loader[K], from, to K) error {
	return nodule.Propagate[K](ctx, loader, q, from, to)
}

// Search resolves key directly among this quill's own inlets,
// terminating the recursion that Seam.Search started.
func (q *Quill[K]) Search(_ context.Context, _ nodule.Loader[K], key K, handle *nodule.Handle) error {
	value, ok := q.Lookup(key)
	if !ok {
		return nodule.ErrNotFound
	}
	*handle = value
	return nil
}

func (q *Quill[K]) Check(_ context.Context, _ nodule.Loader[K], parent, _ nodule.Handle) error {
	if q.parent != parent {
		return xerrors.Errorf("quill: check: %w: parent handle mismatch", nodule.ErrInvariantViolation)
	}
	var checkErr error
	q.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		if q.codec.Less(in.Key, key) || q.codec.Less(key, in.Key) {
			checkErr = xerrors.Errorf("quill: check: %w: invalid key", nodule.ErrInvariantViolation)
			return false
		}
		return true
	})
	return checkErr
}

// Split carves off the highest-keyed inlets into a new right sibling.
func (q *Quill[K]) Split() (*Quill[K], error) {
	if q.inlets.Len() < 2 {
		return nil, xerrors.Errorf("quill: split: %w: fewer than two inlets", nodule.ErrInvariantViolation)
	}
	right := New(q.codec)
	target := (q.footprint - headerFootprint()) / 2
	keys := q.inlets.Keys()
	moved := 0
	for i := len(keys) - 1; i >= 0 && moved < target; i-- {
		in, _ := q.inlets.Get(keys[i])
		right.inlets.Insert(in.Key, in)
		right.footprint += in.Footprint
		moved += in.Footprint
		q.inlets.Delete(in.Key)
		q.footprint -= in.Footprint
	}
	if right.inlets.Len() == 0 {
		return nil, xerrors.Errorf("quill: split: %w: nothing to export", nodule.ErrInvariantViolation)
	}
	q.state = nodule.Dirty
	right.state = nodule.Dirty
	return right, nil
}

// Merge absorbs other's inlets into q.
func (q *Quill[K]) Merge(other *Quill[K]) error {
	var mergeErr error
	other.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		if !q.inlets.Insert(key, in) {
			mergeErr = xerrors.Errorf("quill: merge %v: %w", key, nodule.ErrDuplicateKey)
			return false
		}
		q.footprint += in.Footprint
		return true
	})
	if mergeErr != nil {
		return mergeErr
	}
	q.state = nodule.Dirty
	return nil
}

// Traverse visits every (key, value handle) pair in ascending order.
func (q *Quill[K]) Traverse(_ context.Context, _ nodule.Loader[K], visit func(K, nodule.Handle) bool) error {
	q.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		return visit(key, in.Value)
	})
	return nil
}

func (q *Quill[K]) EncodeCanonical(w io.Writer) error {
	if err := nodule.EncodeHeader(w, q.parent, q.state, q.footprint); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, uint32(q.inlets.Len())); err != nil {
		return err
	}
	var encodeErr error
	q.inlets.All(func(_ K, in nodule.Inlet[K]) bool {
		if err := nodule.EncodeInlet(w, q.codec, in); err != nil {
			encodeErr = err
			return false
		}
		return true
	})
	return encodeErr
}

// Decode reverses EncodeCanonical.
func Decode[K any](r io.Reader, codec nodule.KeyCodec[K]) (*Quill[K], error) {
	parent, footprint, err := nodule.DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	var count uint32
	if err := wire.ReadUint32(r, &count); err != nil {
		return nil, err
	}
	q := &Quill[K]{
		codec:     codec,
		inlets:    omap.New[K, nodule.Inlet[K]](codec.Less),
		parent:    parent,
		state:     nodule.Consistent,
		footprint: footprint,
	}
	for i := uint32(0); i < count; i++ {
		in, err := nodule.DecodeInlet(r, codec)
		if err != nil {
			return nil, err
		}
		if !q.inlets.Insert(in.Key, in) {
			return nil, xerrors.Errorf("quill: decode: %w", nodule.ErrSchemaMismatch)
		}
	}
	return q, nil
}

func (q *Quill[K]) Dump(_ context.Context, _ nodule.Loader[K], w io.Writer, margin int) error {
	pad := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = ' '
		}
		return string(b)
	}
	fmt.Fprintf(w, "%squill[%d inlets, footprint=%d]\n", pad(margin), q.inlets.Len(), q.footprint)
	q.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		fmt.Fprintf(w, "%s- %v -> %s\n", pad(margin+2), key, in.Value.Addr)
		return true
	})
	return nil
}
