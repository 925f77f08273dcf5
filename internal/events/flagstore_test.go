// internal/events/flagstore_test.go
package events

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestFlagStore(t *testing.T) *FlagStore {
	t.Helper()
	store, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFlagStoreMarkAndDrain(t *testing.T) {
	store := openTestFlagStore(t)

	require.NoError(t, store.Mark(5))
	require.NoError(t, store.Mark(12))

	ids, err := store.Drain()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{5, 12}, ids)

	// Drain clears the flags.
	ids, err = store.Drain()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFlagStoreDuplicateMarksCollapse(t *testing.T) {
	store := openTestFlagStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Mark(9))
	}

	ids, err := store.Drain()
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, ids)
}

func TestFlagStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.db")

	store, err := OpenFlagStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Mark(3))
	require.NoError(t, store.Close())

	reopened, err := OpenFlagStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	ids, err := reopened.Drain()
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
}
