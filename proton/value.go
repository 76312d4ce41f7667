package proton

import (
	"context"
	"io"

	"github.com/infinit-contrib/proton/nodule"
)

// PutValue seals payload as its own content-addressed block and
// returns a handle suitable for Insert/Update — the tree indexes
// opaque values, it never interprets them (spec.md section 3).
func (t *Tree[K]) PutValue(ctx context.Context, payload []byte) (nodule.Handle, error) {
	return t.table.StoreValue(ctx, payload)
}

// GetValue reverses PutValue: fetch and decrypt the block a value
// handle (typically one returned by Search) points at.
func (t *Tree[K]) GetValue(ctx context.Context, h nodule.Handle) ([]byte, error) {
	return t.table.LoadValue(ctx, h)
}

// Dump writes a human-readable, recursive description of the whole
// tree starting at its root (spec.md section 5, "dump").
func (t *Tree[K]) Dump(ctx context.Context, w io.Writer) error {
	root, err := t.table.Load(ctx, t.root)
	if err != nil {
		return err
	}
	dumpErr := root.Dump(ctx, t.table, w, 0)
	if err := t.table.Unload(ctx, &t.root, root); err != nil && dumpErr == nil {
		dumpErr = err
	}
	return dumpErr
}
