// internal/royalty/resolver_test.go
package royalty

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/imi-royalty/internal/models"
)

func TestResolverPrefersOwnedAssetRecord(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(7, Patch{Pending: amountPtr("0.25"), Owned: boolPtr(true), Origin: boolPtr(true)})
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("5"), Owned: boolPtr(true)})

	res := NewResolver(store).Resolve(7)
	assert.Equal(t, uint64(7), res.TargetID)
	assert.False(t, res.PoolFallback)
	assert.Equal(t, "0.25", res.Record.Pending.String())
}

func TestResolverPoolFallback(t *testing.T) {
	// Asset B: pending 0, owned; pool: pending 5, owned → B resolves to the
	// pool record and a claim targets id 0.
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(8, Patch{Pending: amountPtr("0"), Owned: boolPtr(true), Origin: boolPtr(true)})
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("5"), Owned: boolPtr(true)})

	res := NewResolver(store).Resolve(8)
	assert.True(t, res.PoolFallback)
	assert.Equal(t, models.PoolAssetID, res.TargetID)
	assert.Equal(t, "5", res.Record.Pending.String())
}

func TestResolverNoFallbackWhenAssetHasPending(t *testing.T) {
	// An unowned asset with pending > 0 is never reported claimable, even
	// with a claimable pool sitting next to it.
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(3, Patch{Pending: amountPtr("2.0"), Owned: boolPtr(false), Origin: boolPtr(true)})
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("5"), Owned: boolPtr(true)})

	res := NewResolver(store).Resolve(3)
	assert.False(t, res.PoolFallback)
	assert.Equal(t, uint64(3), res.TargetID)
	assert.False(t, res.Record.Claimable())
}

func TestResolverNoFallbackWhenPoolUnowned(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(8, Patch{Pending: amountPtr("0"), Owned: boolPtr(true), Origin: boolPtr(true)})
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("5"), Owned: boolPtr(false)})

	res := NewResolver(store).Resolve(8)
	assert.False(t, res.PoolFallback)
	assert.Equal(t, uint64(8), res.TargetID)
	assert.False(t, res.Record.Claimable())
}

func TestResolverZeroPendingNeverClaimable(t *testing.T) {
	// pending(A) == 0 must never resolve claimable for an unowned A, even
	// when the pool next to it is funded and owned.
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(4, Patch{Pending: amountPtr("0"), Owned: boolPtr(false), Origin: boolPtr(true)})
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("9"), Owned: boolPtr(true)})

	res := NewResolver(store).Resolve(4)
	assert.False(t, res.PoolFallback)
	assert.Equal(t, uint64(4), res.TargetID)
	assert.False(t, res.Record.Claimable())
	assert.True(t, res.Record.Pending.IsZero())
}

func TestResolverAbsentRecord(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")

	res := NewResolver(store).Resolve(99)
	assert.Equal(t, uint64(99), res.TargetID)
	assert.False(t, res.PoolFallback)
	assert.True(t, res.Record.Pending.IsZero())
	assert.False(t, res.Record.Claimable())
}

func TestResolverPoolResolvesToItself(t *testing.T) {
	store := NewStore()
	store.ResetForAccount("0xabc")
	store.Upsert(models.PoolAssetID, Patch{Pending: amountPtr("5"), Owned: boolPtr(true)})

	res := NewResolver(store).Resolve(models.PoolAssetID)
	assert.Equal(t, models.PoolAssetID, res.TargetID)
	assert.False(t, res.PoolFallback)
	assert.Equal(t, "5", res.Record.Pending.String())
}
