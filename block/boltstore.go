package block

import (
	"context"

	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/address"
	"github.com/infinit-contrib/proton/crypto"
)

var (
	bucketName = []byte("proton.blocks")
	metaBucket = []byte("proton.meta")
	rootKey    = []byte("root")
)

// BoltStore persists blocks in a single bbolt bucket. It is the store
// protonctl opens for on-disk trees.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path and
// ensures the block bucket exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, xerrors.Errorf("block: open bolt store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("block: init bolt bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(_ context.Context, addr address.Address) ([]byte, error) {
	var framed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(addr[:])
		if v == nil {
			return ErrNotFound
		}
		framed = make([]byte, len(v))
		copy(framed, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return framed, nil
}

func (s *BoltStore) Put(_ context.Context, addr address.Address, framed []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(addr[:], framed)
	})
}

func (s *BoltStore) Exists(_ context.Context, addr address.Address) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketName).Get(addr[:]) != nil
		return nil
	})
	return ok, err
}

// Each implements Scanner, walking every block in a single read
// transaction.
func (s *BoltStore) Each(_ context.Context, fn func(address.Address, []byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			if len(k) != len(address.Address{}) {
				return xerrors.Errorf("block: malformed address key")
			}
			var addr address.Address
			copy(addr[:], k)
			framed := make([]byte, len(v))
			copy(framed, v)
			return fn(addr, framed)
		})
	})
}

// SaveRoot persists the tree's current root handle (address||secret)
// so protonctl can reattach to the same tree across invocations.
func (s *BoltStore) SaveRoot(addr address.Address, secret crypto.Secret) error {
	buf := make([]byte, 0, len(addr)+len(secret))
	buf = append(buf, addr[:]...)
	buf = append(buf, secret[:]...)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put(rootKey, buf)
	})
}

// LoadRoot retrieves the root handle saved by SaveRoot. ok is false if
// none has been saved yet (a brand-new database).
func (s *BoltStore) LoadRoot() (addr address.Address, secret crypto.Secret, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(metaBucket).Get(rootKey)
		if v == nil {
			return nil
		}
		if len(v) != len(addr)+len(secret) {
			return xerrors.Errorf("block: malformed root record")
		}
		copy(addr[:], v[:len(addr)])
		copy(secret[:], v[len(addr):])
		ok = true
		return nil
	})
	return addr, secret, ok, err
}
