// internal/models/asset.go
package models

// PoolAssetID is the sentinel identifier the ledger was observed to post
// otherwise-unattributed royalty deposits against. It is not a real asset;
// it doubles as the "no parent" marker on registrations.
const PoolAssetID uint64 = 0

// Asset is an immutable registration record once minted on the ledger.
// Ownership is the only attribute that changes over time, via buy/rent
// transactions outside this service.
type Asset struct {
	ID          uint64      `json:"id"`
	Owner       string      `json:"owner"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	LicenseMode LicenseMode `json:"license_mode"`
	BasePrice   Amount      `json:"base_price"`
	RentPrice   Amount      `json:"rent_price"`
	RoyaltyRate uint8       `json:"royalty_rate"` // percent, 0-100
	ParentID    uint64      `json:"parent_id"`    // PoolAssetID means original
}

// IsRemix reports whether the asset derives from a parent and therefore owes
// royalties upstream.
func (a *Asset) IsRemix() bool {
	return a.ParentID != PoolAssetID
}
