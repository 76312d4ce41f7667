package proton

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenFromConfigInMemoryHasNoopSave(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.NetworkID = "session-test"

	sess, err := OpenFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Save(), "saving an in-memory session is a no-op, not an error")
}

func TestOpenFromConfigRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NetworkID = ""
	_, err := OpenFromConfig(context.Background(), cfg)
	require.Error(t, err)
}

func TestOpenFromConfigPersistsRootAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.NetworkID = "session-reopen-test"
	cfg.StorePath = filepath.Join(t.TempDir(), "proton.db")

	sess, err := OpenFromConfig(ctx, cfg)
	require.NoError(t, err)

	v, err := sess.Tree.PutValue(ctx, []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, sess.Tree.Insert(ctx, 1, v))
	require.NoError(t, sess.Save())
	require.NoError(t, sess.Close())

	reopened, err := OpenFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Tree.Search(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, v, got)
}
