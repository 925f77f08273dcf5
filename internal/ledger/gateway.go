// internal/ledger/gateway.go
package ledger

import (
	"context"
	"errors"

	"github.com/javajoker/imi-royalty/internal/models"
)

// Gateway error taxonomy. Callers branch with errors.Is; everything else a
// gateway returns is treated as a retryable transport failure.
var (
	// ErrNotFound: the asset id is unknown to the ledger.
	ErrNotFound = errors.New("ledger: asset not found")
	// ErrRejected: the ledger (or the signing layer) declined the write.
	ErrRejected = errors.New("ledger: transaction rejected")
	// ErrInsufficientAuthorization: the caller does not own the asset.
	ErrInsufficientAuthorization = errors.New("ledger: caller is not the asset owner")
	// ErrUnavailable: nothing pending to claim.
	ErrUnavailable = errors.New("ledger: no pending royalty balance")
)

// Balance is a royalty balance pair in the ledger's native value unit.
type Balance struct {
	Pending models.Amount `json:"pending"`
	Claimed models.Amount `json:"claimed"`
}

// Receipt is returned by a successful claim write.
type Receipt struct {
	TxHash  string        `json:"tx_hash"`
	AssetID uint64        `json:"asset_id"`
	Amount  models.Amount `json:"amount"`
}

// Gateway is the sole boundary to the remote ledger. Implementations perform
// the one typed decoding step: whatever wire shape the ledger speaks, callers
// only ever see models.Asset and Balance.
type Gateway interface {
	// GetAsset fails with ErrNotFound for unknown ids, including the
	// sentinel pool id, which is not a real asset.
	GetAsset(ctx context.Context, id uint64) (*models.Asset, error)
	// GetOwnedAssetIDs enumerates every asset currently owned by account.
	// Order is not guaranteed; completeness is.
	GetOwnedAssetIDs(ctx context.Context, account string) ([]uint64, error)
	// GetRoyaltyBalance returns zero balances for ids the ledger has never
	// accrued royalties against.
	GetRoyaltyBalance(ctx context.Context, id uint64) (*Balance, error)
	// ClaimRoyalty withdraws the full pending balance for id on behalf of
	// the session's signing account.
	ClaimRoyalty(ctx context.Context, id uint64) (*Receipt, error)
}
