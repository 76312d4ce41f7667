package proton

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/factory"
	"github.com/infinit-contrib/proton/nodule"
)

// Session bundles an open Tree with the lifecycle hooks protonctl needs
// around it: Save persists the current root handle (a no-op for an
// in-memory store, where there is nothing to reattach to later), and
// Close releases the underlying store. Store and NetworkID are exposed
// so a caller can run a store-level scrub pass (package address's
// Verify) independent of the tree's own Check.
type Session struct {
	Tree      *Tree[uint64]
	Store     block.Store
	NetworkID []byte
	bolt      *block.BoltStore
	Close     func() error
}

// Save persists the tree's current root handle so the next protonctl
// invocation against the same store reattaches to it, rather than
// starting over from a fresh empty root.
func (s *Session) Save() error {
	if s.bolt == nil {
		return nil
	}
	root := s.Tree.Root()
	return s.bolt.SaveRoot(root.Addr, root.Secret)
}

// OpenFromConfig wires a Config into a running Tree[uint64], the key
// type protonctl operates on (spec.md section 8's scenarios all use
// unsigned integer keys). A non-empty cfg.StorePath opens a bbolt file
// and reattaches to its previously saved root, if any; otherwise the
// tree lives in memory only and always starts from a fresh empty root.
func OpenFromConfig(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store block.Store
	var bolt *block.BoltStore
	closeFn := func() error { return nil }
	root := nodule.Handle{}
	if cfg.StorePath != "" {
		var err error
		bolt, err = block.OpenBoltStore(cfg.StorePath)
		if err != nil {
			return nil, xerrors.Errorf("proton: open store: %w", err)
		}
		store = bolt
		closeFn = bolt.Close
		addr, secret, ok, err := bolt.LoadRoot()
		if err != nil {
			return nil, xerrors.Errorf("proton: load saved root: %w", err)
		}
		if ok {
			root = nodule.Handle{Addr: addr, Secret: secret}
		}
	} else {
		store = block.NewMemStore()
	}

	codec := nodule.Uint64Codec{}
	cal, err := factory.Calibrate[uint64](codec, cfg.Extent, cfg.Contention)
	if err != nil {
		return nil, err
	}
	log := NewLogger(cfg.LogLevel, nil)

	tree, err := Open[uint64](ctx, store, []byte(cfg.NetworkID), codec, cal, root, log)
	if err != nil {
		return nil, err
	}
	return &Session{Tree: tree, Store: store, NetworkID: []byte(cfg.NetworkID), bolt: bolt, Close: closeFn}, nil
}
