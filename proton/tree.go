// Package proton is the tree driver: the external interface a caller
// uses (spec.md section 5, "External Interfaces"), wiring ambit,
// nodule, seam, quill and factory together into Search / Insert /
// Remove / Update / Check.
//
// Grounded on the teacher's Trie driver (iotaledger-trie.go/mutable/
// trie.go: Update/Delete/splitNode/mergeNode/checkReorg), adapted from
// a path-compressed radix trie to a content-addressed B+-tree: descent
// collects a path of loaded nodes, a leaf-level mutation is applied,
// and the path unwinds bottom-up fixing up parent inlets (split,
// merge, mayor-key rebinding) before each node is unloaded.
package proton

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/ambit"
	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/factory"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/quill"
	"github.com/infinit-contrib/proton/seam"
)

// Tree is a content-addressed, encrypted B+-tree keyed by K.
type Tree[K any] struct {
	table *ambit.Table[K]
	codec nodule.KeyCodec[K]
	cal   factory.Calibration
	log   zerolog.Logger

	root nodule.Handle
}

// Open creates a fresh, empty tree rooted at a single quill, or attach
// to an existing one by passing a non-null root handle.
func Open[K any](ctx context.Context, store block.Store, networkID []byte, codec nodule.KeyCodec[K], cal factory.Calibration, root nodule.Handle, log zerolog.Logger) (*Tree[K], error) {
	table := ambit.New[K](store, networkID, codec)
	t := &Tree[K]{table: table, codec: codec, cal: cal, log: log, root: root}
	if !root.IsNull() {
		return t, nil
	}
	empty := quill.New(codec)
	secret, err := crypto.NewSecret()
	if err != nil {
		return nil, xerrors.Errorf("proton: open: %w", err)
	}
	handle, err := table.Store(ctx, secret, empty)
	if err != nil {
		return nil, xerrors.Errorf("proton: open: create empty root: %w", err)
	}
	t.root = handle
	return t, nil
}

// Root returns the tree's current root handle, stable across Search
// but liable to change after any mutating operation.
func (t *Tree[K]) Root() nodule.Handle { return t.root }

type pathEntry[K any] struct {
	handle nodule.Handle
	node   nodule.Nodule[K]
}

// descend walks from the root to the quill responsible for key,
// loading every node on the way and returning the path root-first,
// leaf-last. Every returned node has been Load()ed exactly once and
// must eventually be Unload()ed by the caller in reverse order.
func (t *Tree[K]) descend(ctx context.Context, key K) ([]pathEntry[K], error) {
	h := t.root
	node, err := t.table.Load(ctx, h)
	if err != nil {
		return nil, err
	}
	path := []pathEntry[K]{{handle: h, node: node}}

	for node.Kind() == nodule.KindSeam {
		s := node.(*seam.Seam[K])
		child, ok := s.Locate(key)
		if !ok {
			return path, nil
		}
		childNode, err := t.table.Load(ctx, child)
		if err != nil {
			return path, err
		}
		path = append(path, pathEntry[K]{handle: child, node: childNode})
		h, node = child, childNode
	}
	return path, nil
}

// unwind unloads path from leaf back to root, rebinding each parent's
// inlet to the child's post-unload handle whenever the child was
// rewritten (dirty unload changes its content address). mayorBefore is
// the leaf's mayor key before the caller's mutation, used to locate the
// leaf's own inlet in its parent on the first hop.
func (t *Tree[K]) unwind(ctx context.Context, path []pathEntry[K], mayorBefore K) error {
	childMayor := mayorBefore

	for i := len(path) - 1; i >= 0; i-- {
		entry := path[i]
		oldHandle := entry.handle
		newMayor, hasMayor := entry.node.Mayor()

		if err := t.table.Unload(ctx, &entry.handle, entry.node); err != nil {
			return xerrors.Errorf("proton: unwind: %w", err)
		}

		if i == 0 {
			t.root = entry.handle
			return nil
		}

		parent := path[i-1].node.(*seam.Seam[K])
		if entry.handle != oldHandle {
			if err := parent.Rebind(childMayor, entry.handle); err != nil {
				return xerrors.Errorf("proton: unwind: rebind: %w", err)
			}
		}
		if hasMayor && (t.codec.Less(childMayor, newMayor) || t.codec.Less(newMayor, childMayor)) {
			if _, err := parent.Update(childMayor, newMayor); err != nil {
				return xerrors.Errorf("proton: unwind: update mayor: %w", err)
			}
		}
		if hasMayor {
			childMayor = newMayor
		}
	}
	return nil
}

// Search resolves key to its value handle.
func (t *Tree[K]) Search(ctx context.Context, key K) (nodule.Handle, error) {
	root, err := t.table.Load(ctx, t.root)
	if err != nil {
		return nodule.Handle{}, err
	}
	var out nodule.Handle
	searchErr := root.Search(ctx, t.table, key, &out)
	if err := t.table.Unload(ctx, &t.root, root); err != nil && searchErr == nil {
		searchErr = err
	}
	if searchErr != nil {
		return nodule.Handle{}, searchErr
	}
	return out, nil
}

// Insert adds key -> value. It returns ErrDuplicateKey if key is
// already present.
func (t *Tree[K]) Insert(ctx context.Context, key K, value nodule.Handle) error {
	path, err := t.descend(ctx, key)
	if err != nil {
		t.abort(ctx, path)
		return err
	}
	leafEntry := path[len(path)-1]
	leaf := leafEntry.node.(*quill.Quill[K])
	mayorBefore, hadMayor := leaf.Mayor()

	if err := leaf.Link(key, value); err != nil {
		t.abort(ctx, path)
		return err
	}

	if leaf.Footprint() > t.cal.Extent {
		if err := t.splitLeaf(ctx, path); err != nil {
			t.abort(ctx, path)
			return err
		}
		return nil
	}

	if !hadMayor {
		mayorBefore, _ = leaf.Mayor()
	}
	return t.unwind(ctx, path, mayorBefore)
}

// Remove deletes key. It returns ErrNotFound if key is absent.
func (t *Tree[K]) Remove(ctx context.Context, key K) error {
	path, err := t.descend(ctx, key)
	if err != nil {
		t.abort(ctx, path)
		return err
	}
	leafEntry := path[len(path)-1]
	leaf := leafEntry.node.(*quill.Quill[K])
	mayorBefore, _ := leaf.Mayor()

	if err := leaf.Unlink(key); err != nil {
		t.abort(ctx, path)
		return err
	}

	if leaf.Len() == 0 {
		return t.collapse(ctx, path)
	}

	i := len(path) - 1
	if i > 0 && leaf.Footprint() < t.cal.Sparse {
		return t.mergeLeaf(ctx, path, mayorBefore)
	}

	newMayor, _ := leaf.Mayor()
	return t.unwind(ctx, path, pickMayor(t.codec, mayorBefore, newMayor))
}

// mergeLeaf is invoked when a Remove has left the leaf's footprint
// below the sparse threshold (spec.md section 4.7 step 4). It absorbs
// one adjacent sibling's inlets into the leaf, preferring the right
// sibling, and drops the sibling's now-redundant parent inlet. The
// sibling's own inlets are folded into path[i]'s node either way, so
// the rest of the path unwinds exactly as it would for a plain Remove:
// absorbing a lower-keyed left sibling leaves the leaf's own mayor key
// unchanged (the max of a set does not move when smaller keys join
// it), and absorbing a higher-keyed right sibling moves the mayor up
// to the sibling's old mayor, which unwind's usual rebind-and-rename
// already detects. No further fixup above the parent is attempted: a
// merge can push the parent's own footprint below its sparse threshold
// too, but cascading that is left for a future pass (the parent simply
// persists a little lighter than ideal, which is a balance hint, not
// an invariant spec.md section 8 checks).
func (t *Tree[K]) mergeLeaf(ctx context.Context, path []pathEntry[K], mayorBefore K) error {
	i := len(path) - 1
	leaf := path[i].node.(*quill.Quill[K])
	parent := path[i-1].node.(*seam.Seam[K])

	leafKey, ok := parent.KeyForValue(path[i].handle)
	if !ok {
		leafKey = mayorBefore
	}

	leftKey, left, hasLeft, rightKey, right, hasRight := parent.Siblings(leafKey)
	if !hasLeft && !hasRight {
		// only child in this seam; nothing to merge with.
		newMayor, _ := leaf.Mayor()
		return t.unwind(ctx, path, pickMayor(t.codec, mayorBefore, newMayor))
	}

	siblingKey, siblingHandle := rightKey, right.Value
	if !hasRight {
		siblingKey, siblingHandle = leftKey, left.Value
	}

	siblingNode, err := t.table.Load(ctx, siblingHandle)
	if err != nil {
		return xerrors.Errorf("proton: merge leaf: %w", err)
	}
	sibling, ok := siblingNode.(*quill.Quill[K])
	if !ok {
		t.table.Release(siblingHandle)
		return xerrors.Errorf("proton: merge leaf: %w: sibling is not a leaf", nodule.ErrInvariantViolation)
	}
	if err := leaf.Merge(sibling); err != nil {
		t.table.Release(siblingHandle)
		return xerrors.Errorf("proton: merge leaf: %w", err)
	}
	t.table.Release(siblingHandle)

	if err := parent.Unlink(siblingKey); err != nil {
		return xerrors.Errorf("proton: merge leaf: %w", err)
	}

	return t.unwind(ctx, path, leafKey)
}

// Update replaces the value handle stored at an existing key, leaving
// tree shape untouched. Update(k, sameValue) is a no-op write.
func (t *Tree[K]) Update(ctx context.Context, key K, value nodule.Handle) error {
	path, err := t.descend(ctx, key)
	if err != nil {
		t.abort(ctx, path)
		return err
	}
	leafEntry := path[len(path)-1]
	leaf := leafEntry.node.(*quill.Quill[K])
	mayor, _ := leaf.Mayor()

	if err := leaf.Rebind(key, value); err != nil {
		t.abort(ctx, path)
		return err
	}
	return t.unwind(ctx, path, mayor)
}

// splitLeaf is invoked when an Insert has pushed the leaf over extent.
// It splits the leaf, then walks back up the path splitting any seam
// that in turn overflows, growing the tree by one level at the root if
// necessary.
func (t *Tree[K]) splitLeaf(ctx context.Context, path []pathEntry[K]) error {
	i := len(path) - 1
	leaf := path[i].node.(*quill.Quill[K])
	right, err := leaf.Split()
	if err != nil {
		return err
	}
	return t.splitUp(ctx, path, i, right)
}

// splitUp links right (already carrying the upper half of path[i]'s
// inlets but not yet assigned a parent or a handle) into the parent of
// path[i], recursing upward through further splits, or creating a new
// root seam if path[i] was the root.
func (t *Tree[K]) splitUp(ctx context.Context, path []pathEntry[K], i int, right nodule.Nodule[K]) error {
	rightMayor, _ := right.Mayor()

	if i == 0 {
		return t.newRoot(ctx, path, right)
	}

	parentHandle := path[i-1].handle
	right.SetParent(parentHandle)
	rightSecret, err := crypto.NewSecret()
	if err != nil {
		return err
	}
	rightHandle, err := t.table.Store(ctx, rightSecret, right)
	if err != nil {
		return err
	}

	parent := path[i-1].node.(*seam.Seam[K])
	leftMayor, _ := path[i].node.Mayor()

	// the left child's own mayor key inside the parent may have shrunk
	// as part of the split; refresh it before linking the new sibling.
	oldLeftKey, found := parent.KeyForValue(path[i].handle)
	if found && (t.codec.Less(oldLeftKey, leftMayor) || t.codec.Less(leftMayor, oldLeftKey)) {
		if _, err := parent.Update(oldLeftKey, leftMayor); err != nil {
			return err
		}
	}
	if err := parent.Link(rightMayor, rightHandle); err != nil {
		return err
	}

	if parent.Footprint() <= t.cal.Extent {
		return t.unwind(ctx, path[:i], leftMayor)
	}

	grandRight, err := parent.Split()
	if err != nil {
		return err
	}
	return t.splitUp(ctx, path, i-1, grandRight)
}

// newRoot wraps the current root and its new right sibling in a freshly
// created seam, growing the tree by one level. Both children are
// created before the root's handle exists, so their Parent field can
// only be fixed up and re-persisted once the root has been stored a
// first time; the root's inlets are then rebound to the children's
// post-fixup handles and the root is persisted once more. This two-
// phase dance is the general shape of "rebinding" spec.md section 3
// describes for any mutation that changes a node's address.
func (t *Tree[K]) newRoot(ctx context.Context, path []pathEntry[K], right nodule.Nodule[K]) error {
	left := path[0].node
	leftMayor, _ := left.Mayor()
	rightMayor, _ := right.Mayor()

	if err := t.table.Unload(ctx, &path[0].handle, left); err != nil {
		return err
	}
	leftHandle := path[0].handle

	rightSecret, err := crypto.NewSecret()
	if err != nil {
		return err
	}
	rightHandle, err := t.table.Store(ctx, rightSecret, right)
	if err != nil {
		return err
	}

	root := seam.New[K](t.codec)
	if err := root.Link(leftMayor, leftHandle); err != nil {
		return err
	}
	if err := root.Link(rightMayor, rightHandle); err != nil {
		return err
	}
	rootSecret, err := crypto.NewSecret()
	if err != nil {
		return err
	}
	rootHandle, err := t.table.Store(ctx, rootSecret, root)
	if err != nil {
		return err
	}

	newLeftHandle, err := t.reparent(ctx, leftHandle, rootHandle)
	if err != nil {
		return err
	}
	if newLeftHandle != leftHandle {
		if err := root.Rebind(leftMayor, newLeftHandle); err != nil {
			return err
		}
	}
	newRightHandle, err := t.reparent(ctx, rightHandle, rootHandle)
	if err != nil {
		return err
	}
	if newRightHandle != rightHandle {
		if err := root.Rebind(rightMayor, newRightHandle); err != nil {
			return err
		}
	}

	finalSecret, err := crypto.NewSecret()
	if err != nil {
		return err
	}
	finalRootHandle, err := t.table.Store(ctx, finalSecret, root)
	if err != nil {
		return err
	}
	// rootHandle's block, written before the children's Parent fixups
	// were known, is superseded by finalRootHandle and simply abandoned:
	// blocks are immutable once written, so nothing ever deletes it.

	t.root = finalRootHandle
	return nil
}

// reparent loads the node at h, sets its Parent field to newParent, and
// re-persists it, returning its (possibly new) handle.
func (t *Tree[K]) reparent(ctx context.Context, h, newParent nodule.Handle) (nodule.Handle, error) {
	node, err := t.table.Load(ctx, h)
	if err != nil {
		return nodule.Handle{}, err
	}
	node.SetParent(newParent)
	node.SetState(nodule.Dirty)
	if err := t.table.Unload(ctx, &h, node); err != nil {
		return nodule.Handle{}, err
	}
	return h, nil
}

// collapse handles a leaf that became empty after Remove: it is
// unlinked from its parent entirely, and the tree shrinks by one level
// if that leaves the root seam with a single remaining child.
func (t *Tree[K]) collapse(ctx context.Context, path []pathEntry[K]) error {
	i := len(path) - 1
	if i == 0 {
		// the whole tree is now empty; keep the (empty) root quill.
		return t.unwind(ctx, path, zeroKey[K]())
	}

	parent := path[i-1].node.(*seam.Seam[K])
	leafMayor, _ := parent.KeyForValue(path[i].handle)
	if err := parent.Unlink(leafMayor); err != nil {
		return err
	}
	// the leaf's own block is now unreferenced; it is simply dropped
	// by never being re-stored (content addressing means nothing else
	// can reach it).

	if parent.Len() == 1 && i-1 == 0 {
		return t.collapseRoot(ctx, path)
	}

	newMayor, hasMayor := parent.Mayor()
	if !hasMayor {
		newMayor = leafMayor
	}
	return t.unwind(ctx, path[:i], newMayor)
}

// collapseRoot replaces a root seam holding exactly one child with that
// child, promoting it to root.
func (t *Tree[K]) collapseRoot(ctx context.Context, path []pathEntry[K]) error {
	root := path[0].node.(*seam.Seam[K])
	maiden, ok := root.Maiden()
	if !ok {
		return xerrors.Errorf("proton: collapse root: %w: expected exactly one inlet", nodule.ErrInvariantViolation)
	}
	childHandle, _ := root.Locate(maiden)
	child, err := t.table.Load(ctx, childHandle)
	if err != nil {
		return err
	}
	child.SetParent(nodule.Handle{})
	if err := t.table.Unload(ctx, &childHandle, child); err != nil {
		return err
	}
	t.root = childHandle
	return nil
}

// abort unloads every loaded path entry without rebinding, used when a
// descent or a leaf-level mutation failed partway through.
func (t *Tree[K]) abort(ctx context.Context, path []pathEntry[K]) {
	for i := len(path) - 1; i >= 0; i-- {
		_ = t.table.Unload(ctx, &path[i].handle, path[i].node)
	}
}

func pickMayor[K any](codec nodule.KeyCodec[K], a, b K) K {
	if codec.Less(a, b) {
		return b
	}
	return a
}

func zeroKey[K any]() K {
	var k K
	return k
}
