// Package block is the storage boundary proton speaks to: a flat,
// content-addressed key/value surface. Nothing above this package
// knows or cares whether blocks live in memory, on disk, or behind a
// network call (spec.md section 5, "Store").
package block

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/address"
)

// ErrNotFound is returned by Get when the address is absent.
var ErrNotFound = xerrors.New("block: not found")

// Store is the persistence boundary for framed, encrypted blocks.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get fetches the framed bytes at addr. It returns ErrNotFound if
	// absent.
	Get(ctx context.Context, addr address.Address) ([]byte, error)

	// Put stores framed bytes under addr, overwriting any prior value.
	// Content addressing means a Put at an address already holding
	// identical bytes is a safe no-op; a Put at an address holding
	// different bytes indicates a hash collision or a caller bug, and
	// implementations are not required to detect it (spec.md section 7
	// treats this as StoreIO-class, not a distinguished error).
	Put(ctx context.Context, addr address.Address, framed []byte) error

	// Exists reports whether a block is present at addr, without
	// fetching its bytes (spec.md section 4.2's {put, get, exists}
	// capability set).
	Exists(ctx context.Context, addr address.Address) (bool, error)
}

// Scanner is implemented by stores that can enumerate every block they
// hold. It is deliberately separate from Store: most callers only ever
// need put/get/exists, and a hypothetical network-backed store might
// have no cheap way to enumerate its keyspace. protonctl's store scrub
// (spec.md section 4.2, "Verify") type-asserts for it.
type Scanner interface {
	// Each calls fn once per block currently in the store, in
	// implementation-defined order, stopping at the first error fn
	// returns.
	Each(ctx context.Context, fn func(addr address.Address, framed []byte) error) error
}
