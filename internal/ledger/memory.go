// internal/ledger/memory.go
package ledger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/javajoker/imi-royalty/internal/models"
)

// MemoryLedger is an in-process ledger used in development mode and tests.
// It reproduces the observed on-chain accounting, including the sentinel
// pool id aggregating deposits not attributed to a specific asset.
type MemoryLedger struct {
	mu       sync.Mutex
	caller   string
	assets   map[uint64]models.Asset
	balances map[uint64]Balance
	nonce    uint64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		assets:   make(map[uint64]models.Asset),
		balances: make(map[uint64]Balance),
	}
}

// SetCaller sets the account the next writes are signed by. The real gateway
// derives this from the session's signing key.
func (l *MemoryLedger) SetCaller(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.caller = account
}

// RegisterAsset mints a registration record. The pool id cannot be minted.
func (l *MemoryLedger) RegisterAsset(asset models.Asset) error {
	if asset.ID == models.PoolAssetID {
		return fmt.Errorf("asset id %d is reserved", models.PoolAssetID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.assets[asset.ID]; exists {
		return fmt.Errorf("asset %d already registered", asset.ID)
	}
	l.assets[asset.ID] = asset
	return nil
}

// TransferOwnership reassigns an asset, as a buy/rent transaction would.
func (l *MemoryLedger) TransferOwnership(id uint64, newOwner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	asset, ok := l.assets[id]
	if !ok {
		return fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}
	asset.Owner = newOwner
	l.assets[id] = asset
	return nil
}

// Deposit accrues a royalty against id. Depositing against the pool id
// mimics the ledger posting an unattributed royalty.
func (l *MemoryLedger) Deposit(id uint64, amount models.Amount) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[id]
	bal.Pending = bal.Pending.Add(amount)
	l.balances[id] = bal
	return nil
}

func (l *MemoryLedger) GetAsset(ctx context.Context, id uint64) (*models.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	asset, ok := l.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}
	copied := asset
	return &copied, nil
}

func (l *MemoryLedger) GetOwnedAssetIDs(ctx context.Context, account string) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []uint64
	for id, asset := range l.assets {
		if strings.EqualFold(asset.Owner, account) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (l *MemoryLedger) GetRoyaltyBalance(ctx context.Context, id uint64) (*Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[id]
	if !ok {
		return &Balance{Pending: models.ZeroAmount(), Claimed: models.ZeroAmount()}, nil
	}
	return &Balance{Pending: bal.Pending, Claimed: bal.Claimed}, nil
}

func (l *MemoryLedger) ClaimRoyalty(ctx context.Context, id uint64) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.callerMayClaim(id) {
		return nil, fmt.Errorf("claim asset %d: %w", id, ErrInsufficientAuthorization)
	}

	bal := l.balances[id]
	if bal.Pending.Sign() <= 0 {
		return nil, fmt.Errorf("claim asset %d: %w", id, ErrUnavailable)
	}

	amount := bal.Pending
	bal.Claimed = bal.Claimed.Add(amount)
	bal.Pending = models.ZeroAmount()
	l.balances[id] = bal

	l.nonce++
	return &Receipt{
		TxHash:  l.txHash(id),
		AssetID: id,
		Amount:  amount,
	}, nil
}

// callerMayClaim mirrors the contract's authorization rule: asset claims
// require ownership; the pool pays out to any account holding at least one
// asset, since its deposits carry no attribution.
func (l *MemoryLedger) callerMayClaim(id uint64) bool {
	if l.caller == "" {
		return false
	}
	if id == models.PoolAssetID {
		for _, asset := range l.assets {
			if strings.EqualFold(asset.Owner, l.caller) {
				return true
			}
		}
		return false
	}
	asset, ok := l.assets[id]
	return ok && strings.EqualFold(asset.Owner, l.caller)
}

func (l *MemoryLedger) txHash(id uint64) string {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], id)
	binary.BigEndian.PutUint64(buf[8:], l.nonce)
	sum := sha3.Sum256(append(buf, []byte(l.caller)...))
	return "0x" + hex.EncodeToString(sum[:])
}
