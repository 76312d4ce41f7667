// Package testutil provides small shared fixtures for the proton test
// suite: a deterministic network ID and constructors for an in-memory
// tree at a chosen calibration. Grounded on the teacher's test-side use
// of common.NewInMemoryKVStore() to build a throwaway backing store per
// test case (mutable/tests/proof_test.go).
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/infinit-contrib/proton/ambit"
	"github.com/infinit-contrib/proton/block"
	"github.com/infinit-contrib/proton/factory"
	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/proton"
)

// NetworkID is a fixed, deterministic network ID for reproducible test
// addresses; NewNetworkID generates a fresh one where tests need
// cross-tree isolation (two trees must never collide).
var NetworkID = []byte("proton-test-network")

// NewNetworkID returns a fresh random network ID string, grounded on
// the teacher's use of github.com/google/uuid for test fixture
// identity (cuemby-warren uses uuid for node/service IDs generally; the
// pack's only uuid dependency).
func NewNetworkID(t *testing.T) []byte {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return []byte(id.String())
}

// Table builds an ambit.Table[uint64] over a fresh in-memory store.
func Table(t *testing.T) *ambit.Table[uint64] {
	t.Helper()
	return ambit.New[uint64](block.NewMemStore(), NetworkID, nodule.Uint64Codec{})
}

// SmallCalibration is a deliberately tiny extent so a handful of
// Insert calls is enough to exercise split/merge/propagate logic in
// tests, without needing thousands of entries.
func SmallCalibration(t *testing.T) factory.Calibration {
	t.Helper()
	cal, err := factory.Calibrate[uint64](nodule.Uint64Codec{}, 256, 0.5)
	require.NoError(t, err)
	return cal
}

// NewTree opens a fresh, empty in-memory tree calibrated for tests.
func NewTree(t *testing.T) *proton.Tree[uint64] {
	t.Helper()
	ctx := context.Background()
	tree, err := proton.Open[uint64](ctx, block.NewMemStore(), NetworkID, nodule.Uint64Codec{}, SmallCalibration(t), nodule.Handle{}, zerolog.Nop())
	require.NoError(t, err)
	return tree
}
