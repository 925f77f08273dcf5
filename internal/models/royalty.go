// internal/models/royalty.go
package models

import "time"

// RoyaltyRecord is the cached royalty state for one asset id, scoped to the
// active account. Records are created lazily on first fetch and live for the
// wallet session; they are only cleared wholesale on account switch.
type RoyaltyRecord struct {
	AssetID uint64 `json:"asset_id"`
	// Pending grows as remixes deposit royalties and drops to zero on claim.
	Pending Amount `json:"pending"`
	// Claimed is cumulative and only ever grows.
	Claimed Amount `json:"claimed"`
	// OwnedByAccount is recomputed on every fetch against the active account.
	// For the sentinel pool record it reflects whether the account owns any
	// asset at all, since the pool has no single well-defined owner.
	OwnedByAccount bool `json:"owned_by_account"`
	// OriginAsset is false for placeholder records (unknown ids, the pool).
	OriginAsset bool      `json:"origin_asset"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Claimable reports whether this record, on its own, supports a claim.
// Attribution (pool fallback) is layered on top by the resolver.
func (r *RoyaltyRecord) Claimable() bool {
	return r.OwnedByAccount && r.Pending.Sign() > 0
}
