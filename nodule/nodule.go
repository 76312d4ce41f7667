package nodule

import (
	"context"
	"io"
)

// Nodule is the shared contract every node (Seam or Quill) satisfies
// (spec.md section 4.4). K is the tree's key type.
type Nodule[K any] interface {
	Kind() Kind

	Parent() Handle
	SetParent(Handle)

	State() State
	SetState(State)

	// Footprint is the node's current estimated serialized size.
	Footprint() int

	// Mayor returns the maximum key present. ok is false for an empty
	// node (only possible transiently, e.g. a freshly created root).
	Mayor() (K, bool)

	// Minor returns the minimum key present. Used by the cross-sibling
	// extension of Check to confirm adjacent children's key ranges do
	// not overlap, a gap original_source/XXX/Seam.hxx leaves marked
	// "XXX[load left/right & check]".
	Minor() (K, bool)

	// Maiden returns the sole remaining key; ok is false unless exactly
	// one inlet is present.
	Maiden() (K, bool)

	// Update renames the inlet currently keyed oldKey to newKey, without
	// touching its value handle. changed reports whether this node's own
	// Mayor() differs as a result, which is what drives Propagate
	// upward through ancestors (spec.md section 4.5, "Propagate").
	Update(oldKey, newKey K) (changed bool, err error)

	// Propagate renames the inlet keyed from to to, then, if that
	// changes this node's own Mayor, loads its parent through loader and
	// recurses, carrying this node's own old/new mayor upward. It is a
	// no-op past the root (Parent().IsNull()).
	Propagate(ctx context.Context, loader Loader[K], from, to K) error

	// Search threads the responsible child/value handle through
	// *handle. A Seam looks up the responsible child, loads it through
	// loader, recurses into it, and unloads it again. A Quill
	// terminates the recursion: it locates key directly among its own
	// inlets and writes the matching value handle into *handle (spec.md
	// section 4.5).
	Search(ctx context.Context, loader Loader[K], key K, handle *Handle) error

	// Check verifies that parent equals this node's own recorded parent
	// handle, then, for a Seam, that every child's mayor key matches the
	// inlet that references it, recursing with self as the child's
	// expected parent (spec.md section 4.5/8; original_source
	// XXX/Seam.hxx Check(parent, current)).
	Check(ctx context.Context, loader Loader[K], parent, self Handle) error

	// EncodeCanonical writes the node's canonical serialization (spec.md
	// section 6): parent handle, state, footprint, then inlets in
	// ascending key order.
	EncodeCanonical(w io.Writer) error

	// Dump writes a human-readable recursive description, grounded on
	// Seam::Dump / Seam::Traverse (original_source/XXX/Seam.hxx).
	Dump(ctx context.Context, loader Loader[K], w io.Writer, margin int) error
}

// Loader is the capability Ambit provides to nodes that need to
// recurse into children: load a handle into a live node, and release
// it again. Defining this in package nodule (rather than importing
// package ambit) keeps nodule free of a dependency on its own caller;
// ambit.Table satisfies this interface structurally.
type Loader[K any] interface {
	Load(ctx context.Context, h Handle) (Nodule[K], error)
	Unload(ctx context.Context, h *Handle, n Nodule[K]) error
}
