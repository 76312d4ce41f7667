// Package seam implements Seam, the internal (non-terminal) node of the
// proton tree. A Seam's inlets route a key range to the child nodule
// (another Seam or a Quill) responsible for it.
//
// Grounded on original_source/XXX/Seam.hxx, adapted from a
// std::map<K, I*>-with-manual-refcounting design to a slice-backed
// ordered map (internal/omap) holding value inlets directly, matching
// the teacher's (iotaledger-trie.go) preference for small, allocation-
// light node representations over pointer-heavy containers.
package seam

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/internal/omap"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/wire"
)

// Seam is a generic internal node keyed by K.
type Seam[K any] struct {
	codec     nodule.KeyCodec[K]
	parent    nodule.Handle
	state     nodule.State
	inlets    *omap.Map[K, nodule.Inlet[K]]
	footprint int
}

var _ nodule.Nodule[uint64] = (*Seam[uint64])(nil)

// headerFootprint is the serialized size of an empty seam's header plus
// inlet count field, used as the fixed component of Footprint.
func headerFootprint() int {
	return wire.MustSize(func(w io.Writer) error {
		if err := nodule.EncodeHeader(w, nodule.Handle{}, nodule.Clean, 0); err != nil {
			return err
		}
		return wire.WriteUint32(w, 0)
	})
}

// New creates an empty, Dirty seam (spec.md section 4.5, "Create").
func New[K any](codec nodule.KeyCodec[K]) *Seam[K] {
	return &Seam[K]{
		codec:     codec,
		inlets:    omap.New[K, nodule.Inlet[K]](codec.Less),
		state:     nodule.Dirty,
		footprint: headerFootprint(),
	}
}

func (s *Seam[K]) Kind() nodule.Kind { return nodule.KindSeam }

func (s *Seam[K]) Parent() nodule.Handle     { return s.parent }
func (s *Seam[K]) SetParent(h nodule.Handle) { s.parent = h }

func (s *Seam[K]) State() nodule.State     { return s.state }
func (s *Seam[K]) SetState(st nodule.State) { s.state = st }

func (s *Seam[K]) Footprint() int { return s.footprint }

// Len reports the number of inlets (the seam's fan-out).
func (s *Seam[K]) Len() int { return s.inlets.Len() }

func (s *Seam[K]) Mayor() (K, bool) {
	k, _, ok := s.inlets.Max()
	return k, ok
}

func (s *Seam[K]) Minor() (K, bool) {
	k, _, ok := s.inlets.Min()
	return k, ok
}

func (s *Seam[K]) Maiden() (K, bool) {
	if s.inlets.Len() != 1 {
		var zero K
		return zero, false
	}
	k, _, _ := s.inlets.Min()
	return k, true
}

// Locate returns the child handle responsible for key: the inlet with
// the smallest key >= key (spec.md section 4.5, "Lookup").
func (s *Seam[K]) Locate(key K) (nodule.Handle, bool) {
	_, in, ok := s.inlets.Ceiling(key)
	if !ok {
		return nodule.Handle{}, false
	}
	return in.Value, true
}

// Lookup returns the exact inlet stored at key, if present.
func (s *Seam[K]) Lookup(key K) (nodule.Inlet[K], bool) {
	return s.inlets.Get(key)
}

// Siblings returns the inlets immediately below and above key, whether
// or not key itself is present. Used by the tree driver to locate a
// merge candidate for a child whose footprint has fallen below the
// sparse threshold (spec.md section 4.7 step 4).
func (s *Seam[K]) Siblings(key K) (leftKey K, left nodule.Inlet[K], hasLeft bool, rightKey K, right nodule.Inlet[K], hasRight bool) {
	return s.inlets.Neighbors(key)
}

// KeyForValue scans for the inlet whose value handle's address matches
// target's, returning its key. Used by the tree driver to recover
// which inlet references a child it already holds a (possibly stale)
// handle for, since a child's address changes every time it is
// rewritten.
func (s *Seam[K]) KeyForValue(target nodule.Handle) (K, bool) {
	var found K
	ok := false
	s.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		if in.Value.Addr == target.Addr {
			found, ok = key, true
			return false
		}
		return true
	})
	return found, ok
}

// Link inserts a new child inlet. It returns ErrDuplicateKey if key is
// already present (spec.md section 4.5, "Insert").
func (s *Seam[K]) Link(key K, child nodule.Handle) error {
	fp := nodule.InletFootprint(s.codec, key)
	in := nodule.Inlet[K]{Key: key, Value: child, Footprint: fp}
	if !s.inlets.Insert(key, in) {
		return xerrors.Errorf("seam: link %v: %w", key, nodule.ErrDuplicateKey)
	}
	s.footprint += fp
	s.state = nodule.Dirty
	return nil
}

// Rebind updates the value handle stored at key without touching its
// position, used after a child is rewritten to a new address.
func (s *Seam[K]) Rebind(key K, child nodule.Handle) error {
	in, ok := s.inlets.Get(key)
	if !ok {
		return xerrors.Errorf("seam: rebind %v: %w", key, nodule.ErrNotFound)
	}
	in.Value = child
	s.inlets.Insert(key, in) // overwrite: omap.Insert is keyed, but key exists
	s.state = nodule.Dirty
	return nil
}

// Unlink removes the inlet at key (spec.md section 4.5, "Delete").
func (s *Seam[K]) Unlink(key K) error {
	in, ok := s.inlets.Get(key)
	if !ok {
		return xerrors.Errorf("seam: unlink %v: %w", key, nodule.ErrNotFound)
	}
	s.inlets.Delete(key)
	s.footprint -= in.Footprint
	s.state = nodule.Dirty
	return nil
}

// Update renames the inlet keyed oldKey to newKey (spec.md section 4.5,
// "Update"). changed reports whether the seam's own Mayor moved.
func (s *Seam[K]) Update(oldKey, newKey K) (bool, error) {
	if !s.codec.Less(oldKey, newKey) && !s.codec.Less(newKey, oldKey) {
		return false, nil // no-op rename
	}
	before, _ := s.Mayor()
	if !s.inlets.Rekey(oldKey, newKey) {
		return false, xerrors.Errorf("seam: update %v -> %v: %w", oldKey, newKey, nodule.ErrNotFound)
	}
	s.state = nodule.Dirty
	after, _ := s.Mayor()
	changed := s.codec.Less(before, after) || s.codec.Less(after, before)
	return changed, nil
}

func (s *Seam[K]) Propagate(ctx context.Context, loader nodule.Loader[K], from, to K) error {
	return nodule.Propagate[K](ctx, loader, s, from, to)
}

func (s *Seam[K]) Search(ctx context.Context, loader nodule.Loader[K], key K, handle *nodule.Handle) error {
	child, ok := s.Locate(key)
	if !ok {
		return nodule.ErrNotFound
	}
	*handle = child

	childNode, err := loader.Load(ctx, child)
	if err != nil {
		return err
	}
	if err := childNode.Search(ctx, loader, key, handle); err != nil {
		_ = loader.Unload(ctx, &child, childNode)
		return err
	}
	return loader.Unload(ctx, &child, childNode)
}

// Check verifies this seam's own parent handle, that every child's
// mayor key matches the inlet that references it, and that adjacent
// children's key ranges do not overlap (the cross-sibling extension
// resolving the "XXX[load left/right & check]" gap left open in
// original_source/XXX/Seam.hxx), recursing into each child in turn
// (spec.md section 8, invariants P1-P3).
func (s *Seam[K]) Check(ctx context.Context, loader nodule.Loader[K], parent, self nodule.Handle) error {
	if s.parent != parent {
		return xerrors.Errorf("seam: check: %w: parent handle mismatch", nodule.ErrInvariantViolation)
	}

	var checkErr error
	havePrevMayor := false
	var prevMayor K
	s.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		child, err := loader.Load(ctx, in.Value)
		if err != nil {
			checkErr = err
			return false
		}
		mayor, ok := child.Mayor()
		if !ok {
			checkErr = xerrors.Errorf("seam: check: %w: child has no mayor", nodule.ErrInvariantViolation)
			_ = loader.Unload(ctx, &in.Value, child)
			return false
		}
		if s.codec.Less(mayor, key) || s.codec.Less(key, mayor) {
			checkErr = xerrors.Errorf("seam: check: %w: child mayor %v does not match inlet key %v",
				nodule.ErrInvariantViolation, mayor, key)
			_ = loader.Unload(ctx, &in.Value, child)
			return false
		}
		if minor, ok := child.Minor(); ok && havePrevMayor {
			if !s.codec.Less(prevMayor, minor) {
				checkErr = xerrors.Errorf("seam: check: %w: sibling key ranges overlap at %v",
					nodule.ErrInvariantViolation, minor)
				_ = loader.Unload(ctx, &in.Value, child)
				return false
			}
		}
		if err := child.Check(ctx, loader, self, in.Value); err != nil {
			checkErr = err
			_ = loader.Unload(ctx, &in.Value, child)
			return false
		}
		if err := loader.Unload(ctx, &in.Value, child); err != nil {
			checkErr = err
			return false
		}
		prevMayor, havePrevMayor = mayor, true
		return true
	})
	return checkErr
}

// Split carves off the inlets holding the highest keys into a new,
// freshly-created right sibling, moving roughly half of the footprint
// across (spec.md section 4.5, "Split"; original_source
// XXX/Seam.hxx Split/Export). The caller is responsible for linking
// the returned seam into the parent and persisting both halves.
func (s *Seam[K]) Split() (*Seam[K], error) {
	if s.inlets.Len() < 2 {
		return nil, xerrors.Errorf("seam: split: %w: fewer than two inlets", nodule.ErrInvariantViolation)
	}
	right := New(s.codec)
	target := (s.footprint - headerFootprint()) / 2
	keys := s.inlets.Keys()
	moved := 0
	for i := len(keys) - 1; i >= 0 && moved < target; i-- {
		in, _ := s.inlets.Get(keys[i])
		right.inlets.Insert(in.Key, in)
		right.footprint += in.Footprint
		moved += in.Footprint
		s.inlets.Delete(in.Key)
		s.footprint -= in.Footprint
	}
	if right.inlets.Len() == 0 {
		return nil, xerrors.Errorf("seam: split: %w: nothing to export", nodule.ErrInvariantViolation)
	}
	s.state = nodule.Dirty
	right.state = nodule.Dirty
	return right, nil
}

// Merge absorbs other's inlets into s (spec.md section 4.5, "Merge";
// original_source XXX/Seam.hxx Merge/Import). other is left empty but
// otherwise untouched; the caller discards its block.
func (s *Seam[K]) Merge(other *Seam[K]) error {
	var mergeErr error
	other.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		if !s.inlets.Insert(key, in) {
			mergeErr = xerrors.Errorf("seam: merge %v: %w", key, nodule.ErrDuplicateKey)
			return false
		}
		s.footprint += in.Footprint
		return true
	})
	if mergeErr != nil {
		return mergeErr
	}
	s.state = nodule.Dirty
	return nil
}

// Traverse visits every (key, value handle) pair reachable under this
// seam in ascending order, recursing through children via loader.
func (s *Seam[K]) Traverse(ctx context.Context, loader nodule.Loader[K], visit func(K, nodule.Handle) bool) error {
	var err error
	stop := false
	s.inlets.All(func(_ K, in nodule.Inlet[K]) bool {
		child, lerr := loader.Load(ctx, in.Value)
		if lerr != nil {
			err = lerr
			return false
		}
		switch c := child.(type) {
		case *Seam[K]:
			err = c.Traverse(ctx, loader, visit)
		case interface {
			Traverse(context.Context, nodule.Loader[K], func(K, nodule.Handle) bool) error
		}:
			err = c.Traverse(ctx, loader, visit)
		}
		if uerr := loader.Unload(ctx, &in.Value, child); uerr != nil && err == nil {
			err = uerr
		}
		if err != nil {
			stop = true
			return false
		}
		return !stop
	})
	return err
}

func (s *Seam[K]) EncodeCanonical(w io.Writer) error {
	if err := nodule.EncodeHeader(w, s.parent, s.state, s.footprint); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, uint32(s.inlets.Len())); err != nil {
		return err
	}
	var encodeErr error
	s.inlets.All(func(_ K, in nodule.Inlet[K]) bool {
		if err := nodule.EncodeInlet(w, s.codec, in); err != nil {
			encodeErr = err
			return false
		}
		return true
	})
	return encodeErr
}

// Decode reverses EncodeCanonical.
func Decode[K any](r io.Reader, codec nodule.KeyCodec[K]) (*Seam[K], error) {
	parent, footprint, err := nodule.DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	var count uint32
	if err := wire.ReadUint32(r, &count); err != nil {
		return nil, err
	}
	s := &Seam[K]{
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
		if !s.inlets.Insert(in.Key, in) {
			return nil, xerrors.Errorf("seam: decode: %w", nodule.ErrSchemaMismatch)
		}
	}
	return s, nil
}

func (s *Seam[K]) Dump(ctx context.Context, loader nodule.Loader[K], w io.Writer, margin int) error {
	pad := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = ' '
		}
		return string(b)
	}
	fmt.Fprintf(w, "%sseam[%d inlets, footprint=%d]\n", pad(margin), s.inlets.Len(), s.footprint)
	var dumpErr error
	s.inlets.All(func(key K, in nodule.Inlet[K]) bool {
		fmt.Fprintf(w, "%s- %v -> %s\n", pad(margin+2), key, in.Value.Addr)
		child, err := loader.Load(ctx, in.Value)
		if err != nil {
			dumpErr = err
			return false
		}
		if err := child.Dump(ctx, loader, w, margin+4); err != nil {
			dumpErr = err
			_ = loader.Unload(ctx, &in.Value, child)
			return false
		}
		if err := loader.Unload(ctx, &in.Value, child); err != nil {
			dumpErr = err
			return false
		}
		return true
	})
	return dumpErr
}
