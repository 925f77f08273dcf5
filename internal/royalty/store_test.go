// internal/royalty/store_test.go
package royalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-royalty/internal/models"
)

func amountPtr(s string) *models.Amount {
	a := models.MustAmount(s)
	return &a
}

func boolPtr(b bool) *bool {
	return &b
}

func TestStoreUpsertCreatesLazily(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")

	_, ok := store.Get(7)
	assert.False(t, ok)

	rec := store.Upsert(7, Patch{Pending: amountPtr("0.25")})
	assert.Equal(t, uint64(7), rec.AssetID)
	assert.Equal(t, "0.25", rec.Pending.String())
	assert.Equal(t, "0", rec.Claimed.String())

	got, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, "0.25", got.Pending.String())
}

func TestStoreUpsertMergesWithoutErasing(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")

	// One fetch path fills balances, another fills ownership; neither may
	// clobber the other's fields.
	store.Upsert(5, Patch{Pending: amountPtr("2.0"), Claimed: amountPtr("1.0")})
	store.Upsert(5, Patch{Owned: boolPtr(true), Origin: boolPtr(true)})

	rec, ok := store.Get(5)
	require.True(t, ok)
	assert.Equal(t, "2", rec.Pending.String())
	assert.Equal(t, "1", rec.Claimed.String())
	assert.True(t, rec.OwnedByAccount)
	assert.True(t, rec.OriginAsset)
}

func TestStoreResetForAccountClearsEverything(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(1, Patch{Pending: amountPtr("1"), Owned: boolPtr(true)})
	store.Upsert(2, Patch{Pending: amountPtr("2"), Owned: boolPtr(true)})
	require.Equal(t, 2, store.Len())

	store.ResetForAccount("0xdef")
	assert.Equal(t, "0xdef", store.Account())
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get(1)
	assert.False(t, ok)
}

func TestStoreSnapshotOrdered(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(11, Patch{})
	store.Upsert(0, Patch{})
	store.Upsert(5, Patch{})

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, uint64(0), snap[0].AssetID)
	assert.Equal(t, uint64(5), snap[1].AssetID)
	assert.Equal(t, uint64(11), snap[2].AssetID)
}
