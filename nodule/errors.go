package nodule

import "golang.org/x/xerrors"

// Sentinel errors shared across the tree (spec.md section 7). Grounded
// on the teacher's trie/errors.go sentinel-var pattern.
var (
	ErrNotFound          = xerrors.New("proton: key not found")
	ErrDuplicateKey      = xerrors.New("proton: duplicate key")
	ErrInvariantViolation = xerrors.New("proton: invariant violation")
	ErrStoreIO           = xerrors.New("proton: store i/o error")
	ErrLoadFailed        = xerrors.New("proton: load failed")
	ErrStoreFailed       = xerrors.New("proton: store failed")
	ErrSchemaMismatch    = xerrors.New("proton: schema mismatch")
)
