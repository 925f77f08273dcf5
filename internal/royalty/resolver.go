// internal/royalty/resolver.go
package royalty

import (
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/models"
)

// Resolution is the record that governs display and claiming for a
// requested asset id. TargetID is the id a claim must actually be issued
// against; it differs from the requested id when the pool fallback applies.
type Resolution struct {
	Record       models.RoyaltyRecord `json:"record"`
	TargetID     uint64               `json:"target_id"`
	PoolFallback bool                 `json:"pool_fallback"`
}

// Resolver decides which royalty record governs an asset id. The ledger was
// observed to sometimes post royalty deposits against the sentinel pool id
// instead of the true parent id; the resolver hides that inconsistency from
// callers. This is a heuristic over observed accounting, not a documented
// ledger guarantee, so disagreements are logged rather than guessed around.
type Resolver struct {
	store *Store
	log   *logrus.Entry
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{
		store: store,
		log:   logrus.WithField("component", "attribution_resolver"),
	}
}

func (r *Resolver) Resolve(assetID uint64) Resolution {
	rec, ok := r.store.Get(assetID)
	if !ok {
		rec = models.RoyaltyRecord{
			AssetID: assetID,
			Pending: models.ZeroAmount(),
			Claimed: models.ZeroAmount(),
		}
	}

	if assetID == models.PoolAssetID {
		return Resolution{Record: rec, TargetID: assetID}
	}

	if rec.Pending.Sign() > 0 && rec.OwnedByAccount {
		return Resolution{Record: rec, TargetID: assetID}
	}

	// The fallback only applies to assets the account owns: an unowned
	// asset never borrows the pool's balance, no matter how it is funded.
	pool, ok := r.store.Get(models.PoolAssetID)
	if ok && pool.Pending.Sign() > 0 && pool.OwnedByAccount && rec.OwnedByAccount && rec.Pending.Sign() == 0 {
		return Resolution{Record: pool, TargetID: models.PoolAssetID, PoolFallback: true}
	}

	// Conflicting signals (asset has pending but the account does not own
	// it, possibly alongside a claimable pool) resolve to the non-claimable
	// asset record rather than guessing in the user's favor.
	if rec.Pending.Sign() > 0 && !rec.OwnedByAccount {
		r.log.WithFields(logrus.Fields{
			"asset_id": assetID,
			"pending":  rec.Pending.String(),
		}).Warn("Pending balance on unowned asset; reporting as non-claimable")
	}
	return Resolution{Record: rec, TargetID: assetID}
}
