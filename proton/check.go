package proton

import (
	"context"

	"github.com/infinit-contrib/proton/nodule"
)

// Check walks the whole tree verifying every node's local invariants
// (spec.md section 8: P1 mayor-of-child, P2 parent-handle agreement,
// P3 ascending order including the cross-sibling extension seam.Check
// performs). The root's expected parent is the null handle.
func (t *Tree[K]) Check(ctx context.Context) error {
	root, err := t.table.Load(ctx, t.root)
	if err != nil {
		return err
	}
	checkErr := root.Check(ctx, t.table, nodule.Handle{}, t.root)
	if err := t.table.Unload(ctx, &t.root, root); err != nil && checkErr == nil {
		checkErr = err
	}
	return checkErr
}
