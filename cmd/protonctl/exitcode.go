package main

import (
	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/address"
	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/nodule"
)

// exitCode maps an error returned by the tree driver to the exit-code
// table in spec.md section 6: 0 ok, 1 generic, 2 not-found, 3 invariant
// violation, 4 store I/O, 5 corruption/signature mismatch.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case xerrors.Is(err, nodule.ErrNotFound), xerrors.Is(err, block.ErrNotFound):
		return 2
	case xerrors.Is(err, nodule.ErrInvariantViolation):
		return 3
	case xerrors.Is(err, nodule.ErrStoreIO), xerrors.Is(err, nodule.ErrLoadFailed), xerrors.Is(err, nodule.ErrStoreFailed):
		return 4
	case xerrors.Is(err, address.ErrCorruptBlock), xerrors.Is(err, address.ErrSchemaMismatch),
		xerrors.Is(err, nodule.ErrSchemaMismatch), xerrors.Is(err, crypto.ErrOpenFailed):
		return 5
	default:
		return 1
	}
}
