package local

import (
	"context"
	"testing"

	"github.com/botirk38/semsim/types"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(types.BackendConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	lcs := []types.LCSRecord{
		{A: "Bird", B: "Dog", Score: 0, LCS: "Animal"},
		{A: "Dog", B: "Dog", Score: 1, LCS: "Dog"},
	}
	ic := []types.ICRecord{{Term: "Bird", IC: 2}, {Term: "Dog", IC: 1}}
	require.NoError(t, store.SaveLCS(ctx, lcs))
	require.NoError(t, store.SaveIC(ctx, ic))

	gotLCS, err := store.LoadLCS(ctx)
	require.NoError(t, err)
	assert.Equal(t, lcs, gotLCS)

	gotIC, err := store.LoadIC(ctx)
	require.NoError(t, err)
	assert.Equal(t, ic, gotIC)
}

func TestBadgerStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveIC(ctx, []types.ICRecord{{Term: "A", IC: 1}, {Term: "B", IC: 2}}))
	require.NoError(t, store.SaveIC(ctx, []types.ICRecord{{Term: "C", IC: 3}}))

	got, err := store.LoadIC(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.ICRecord{{Term: "C", IC: 3}}, got)

	// the LCS snapshot is untouched by IC saves
	got2, err := store.LoadLCS(ctx)
	require.NoError(t, err)
	assert.Empty(t, got2)
}

func TestBadgerStoreRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("lcs/A\tB"), []byte("oops"))
	})
	require.NoError(t, err)

	_, err = store.LoadLCS(ctx)
	assert.ErrorIs(t, err, types.ErrMalformedSnapshot)
}

func TestBadgerStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(types.BackendConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.SaveIC(ctx, []types.ICRecord{{Term: "Dog", IC: 1}}))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(types.BackendConfig{Path: dir})
	require.NoError(t, err)
	defer store.Close()
	got, err := store.LoadIC(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.ICRecord{{Term: "Dog", IC: 1}}, got)
}

func TestBadgerStoreRequiresPath(t *testing.T) {
	_, err := NewBadgerStore(types.BackendConfig{})
	assert.Error(t, err)
}
