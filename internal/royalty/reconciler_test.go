// internal/royalty/reconciler_test.go
package royalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/imi-royalty/internal/events"
	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/models"
)

const (
	creatorAccount = "0x1111111111111111111111111111111111111111"
	remixerAccount = "0x2222222222222222222222222222222222222222"
)

type ReconcilerTestSuite struct {
	suite.Suite
	ledger     *ledger.MemoryLedger
	store      *Store
	reconciler *Reconciler
}

func (s *ReconcilerTestSuite) SetupTest() {
	s.ledger = ledger.NewMemoryLedger()
	s.store = NewStore()
	s.reconciler = NewReconciler(s.ledger, s.store, events.NewBus(), nil)

	// Original asset 5 by the creator; remixes 10 and 11 by the remixer.
	require.NoError(s.T(), s.ledger.RegisterAsset(models.Asset{
		ID: 5, Owner: creatorAccount, Title: "Skyline", LicenseMode: models.LicenseModeParentRemix, RoyaltyRate: 10,
	}))
	require.NoError(s.T(), s.ledger.RegisterAsset(models.Asset{
		ID: 10, Owner: remixerAccount, Title: "Skyline Redux", LicenseMode: models.LicenseModeChildRemix, ParentID: 5,
	}))
	require.NoError(s.T(), s.ledger.RegisterAsset(models.Asset{
		ID: 11, Owner: remixerAccount, Title: "Skyline Nights", LicenseMode: models.LicenseModeChildRemix, ParentID: 5,
	}))
}

func (s *ReconcilerTestSuite) TestBulkReconcilePopulatesRemixParents() {
	require.NoError(s.T(), s.ledger.Deposit(5, models.MustAmount("1.5")))

	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), remixerAccount))

	// Owned remixes present.
	for _, id := range []uint64{10, 11} {
		rec, ok := s.store.Get(id)
		require.True(s.T(), ok, "record %d missing", id)
		assert.True(s.T(), rec.OwnedByAccount)
		assert.True(s.T(), rec.OriginAsset)
	}

	// Parent 5 is populated even though the remixer does not own it.
	parent, ok := s.store.Get(5)
	require.True(s.T(), ok)
	assert.False(s.T(), parent.OwnedByAccount)
	assert.True(s.T(), parent.OriginAsset)
	assert.Equal(s.T(), "1.5", parent.Pending.String())

	// Pool record refreshed unconditionally.
	pool, ok := s.store.Get(models.PoolAssetID)
	require.True(s.T(), ok)
	assert.True(s.T(), pool.OwnedByAccount) // remixer owns tokens the pool could pay out against
	assert.False(s.T(), pool.OriginAsset)
}

func (s *ReconcilerTestSuite) TestReconcileIsIdempotent() {
	require.NoError(s.T(), s.ledger.Deposit(5, models.MustAmount("0.75")))
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))

	first := s.store.Snapshot()
	require.NoError(s.T(), s.reconciler.ReconcileAccount(context.Background(), TriggerManual))
	second := s.store.Snapshot()

	require.Equal(s.T(), len(first), len(second))
	for i := range first {
		assert.Equal(s.T(), first[i].AssetID, second[i].AssetID)
		assert.True(s.T(), first[i].Pending.Equal(second[i].Pending))
		assert.True(s.T(), first[i].Claimed.Equal(second[i].Claimed))
		assert.Equal(s.T(), first[i].OwnedByAccount, second[i].OwnedByAccount)
		assert.Equal(s.T(), first[i].OriginAsset, second[i].OriginAsset)
	}
}

func (s *ReconcilerTestSuite) TestReconcileAssetAlsoRefreshesPool() {
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))

	require.NoError(s.T(), s.ledger.Deposit(models.PoolAssetID, models.MustAmount("3")))
	require.NoError(s.T(), s.reconciler.ReconcileAsset(context.Background(), 5, TriggerEvent))

	pool, ok := s.store.Get(models.PoolAssetID)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "3", pool.Pending.String())
}

func (s *ReconcilerTestSuite) TestAccountSwitchInvalidatesOwnership() {
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))
	rec, ok := s.store.Get(5)
	require.True(s.T(), ok)
	require.True(s.T(), rec.OwnedByAccount)

	// Switch to the remixer: the cache is rebuilt and 5 is no longer owned.
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), remixerAccount))
	rec, ok = s.store.Get(5)
	require.True(s.T(), ok)
	assert.False(s.T(), rec.OwnedByAccount)
	assert.Equal(s.T(), remixerAccount, s.store.Account())
}

func (s *ReconcilerTestSuite) TestUnknownAssetBecomesPlaceholder() {
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))
	require.NoError(s.T(), s.reconciler.ReconcileAsset(context.Background(), 404, TriggerEvent))

	rec, ok := s.store.Get(404)
	require.True(s.T(), ok)
	assert.False(s.T(), rec.OriginAsset)
	assert.False(s.T(), rec.OwnedByAccount)
	assert.True(s.T(), rec.Pending.IsZero())
}

func (s *ReconcilerTestSuite) TestNoActiveAccount() {
	err := s.reconciler.ReconcileAccount(context.Background(), TriggerManual)
	assert.ErrorIs(s.T(), err, ErrNoActiveAccount)

	err = s.reconciler.ReconcileAsset(context.Background(), 5, TriggerEvent)
	assert.ErrorIs(s.T(), err, ErrNoActiveAccount)
}

func (s *ReconcilerTestSuite) TestSetAccountBindsLedgerSigner() {
	// Opening a session must leave the development ledger able to settle
	// claims for the account, without any separate signer setup.
	require.NoError(s.T(), s.ledger.Deposit(5, models.MustAmount("1")))
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))

	receipt, err := s.ledger.ClaimRoyalty(context.Background(), 5)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "1", receipt.Amount.String())

	// Switching accounts rebinds the signer; the old account's assets are
	// no longer claimable.
	require.NoError(s.T(), s.ledger.Deposit(5, models.MustAmount("1")))
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), remixerAccount))
	_, err = s.ledger.ClaimRoyalty(context.Background(), 5)
	assert.ErrorIs(s.T(), err, ledger.ErrInsufficientAuthorization)
}

func (s *ReconcilerTestSuite) TestDuplicateNotificationsConverge() {
	require.NoError(s.T(), s.ledger.Deposit(5, models.MustAmount("0.5")))
	require.NoError(s.T(), s.reconciler.SetAccount(context.Background(), creatorAccount))

	// At-least-once delivery: the same notification handled twice must not
	// change observable state.
	require.NoError(s.T(), s.reconciler.ReconcileAsset(context.Background(), 5, TriggerEvent))
	before, _ := s.store.Get(5)
	require.NoError(s.T(), s.reconciler.ReconcileAsset(context.Background(), 5, TriggerEvent))
	after, _ := s.store.Get(5)

	assert.True(s.T(), before.Pending.Equal(after.Pending))
	assert.True(s.T(), before.Claimed.Equal(after.Claimed))
	assert.Equal(s.T(), before.OwnedByAccount, after.OwnedByAccount)
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}
