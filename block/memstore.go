package block

import (
	"context"
	"sync"

	"github.com/infinit-contrib/proton/address"
)

// MemStore is an in-process Store backed by a guarded map. It is the
// default store for tests and for protonctl's scratch trees.
type MemStore struct {
	mu     sync.RWMutex
	blocks map[address.Address][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[address.Address][]byte)}
}

func (s *MemStore) Get(_ context.Context, addr address.Address) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	framed, ok := s.blocks[addr]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(framed))
	copy(out, framed)
	return out, nil
}

func (s *MemStore) Put(_ context.Context, addr address.Address, framed []byte) error {
	cp := make([]byte, len(framed))
	copy(cp, framed)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[addr] = cp
	return nil
}

func (s *MemStore) Exists(_ context.Context, addr address.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[addr]
	return ok, nil
}

// Each implements Scanner.
func (s *MemStore) Each(_ context.Context, fn func(address.Address, []byte) error) error {
	s.mu.RLock()
	snapshot := make(map[address.Address][]byte, len(s.blocks))
	for addr, framed := range s.blocks {
		snapshot[addr] = framed
	}
	s.mu.RUnlock()

	for addr, framed := range snapshot {
		if err := fn(addr, framed); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of blocks currently held, for test assertions.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}
