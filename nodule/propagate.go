package nodule

import "context"

// Propagate implements the Nodule.Propagate contract generically so
// Seam and Quill share one recursive walk. Grounded directly on
// Seam<V>::Propagate (original_source/XXX/Seam.hxx): rename the inlet
// keyed from to to, and if the node's own mayor key moved as a result,
// load the parent and carry the (old, new) mayor pair upward.
func Propagate[K any](ctx context.Context, loader Loader[K], self Nodule[K], from, to K) error {
	ancient, _ := self.Mayor()

	changed, err := self.Update(from, to)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	parentHandle := self.Parent()
	if parentHandle.IsNull() {
		return nil
	}

	recent, _ := self.Mayor()

	parentNode, err := loader.Load(ctx, parentHandle)
	if err != nil {
		return err
	}

	propErr := parentNode.Propagate(ctx, loader, ancient, recent)
	if unloadErr := loader.Unload(ctx, &parentHandle, parentNode); unloadErr != nil && propErr == nil {
		propErr = unloadErr
	}
	return propErr
}
