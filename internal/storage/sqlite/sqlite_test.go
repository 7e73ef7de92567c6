package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/sqlite"
	"github.com/cory-johannsen/pf2e-toolbox/internal/testutil"
)

func TestStoreContract(t *testing.T) {
	testutil.RunStoreContract(t, func(t *testing.T) *document.Store {
		store, backend, err := sqlite.OpenStore(filepath.Join(t.TempDir(), "toolbox.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = backend.Close() })
		return store
	})
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "toolbox.db")

	store, backend, err := sqlite.OpenStore(path)
	require.NoError(t, err)
	stored, err := store.PutActor(ctx, testutil.SampleStatBlock())
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	store, backend, err = sqlite.OpenStore(path)
	require.NoError(t, err)
	defer backend.Close()
	got, err := store.GetActor(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}
