// internal/royalty/claimer.go
package royalty

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/metrics"
	"github.com/javajoker/imi-royalty/internal/models"
)

// Recorder persists claim outcomes. A nil Recorder disables persistence.
type Recorder interface {
	RecordClaim(ctx context.Context, receipt *models.ClaimReceipt) error
}

// ClaimSummary is the human-confirmable description of a claim about to be
// issued. Claims are irreversible ledger writes; nothing is sent until the
// caller confirms this exact summary via its token.
type ClaimSummary struct {
	AssetID      uint64        `json:"asset_id"`
	TargetID     uint64        `json:"target_id"`
	Amount       models.Amount `json:"amount"`
	PoolFallback bool          `json:"pool_fallback"`
	ConfirmToken string        `json:"confirm_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// ClaimResult is returned once the ledger write completed.
type ClaimResult struct {
	AssetID  uint64               `json:"asset_id"`
	TargetID uint64               `json:"target_id"`
	Amount   models.Amount        `json:"amount"`
	TxHash   string               `json:"tx_hash"`
	Record   models.RoyaltyRecord `json:"record"`
}

// Claimer executes user-initiated claims safely: local validation first,
// explicit confirmation, one in-flight claim per target id, and a full
// reconciliation pass after the ledger write settles.
type Claimer struct {
	gw         ledger.Gateway
	store      *Store
	resolver   *Resolver
	reconciler *Reconciler
	recorder   Recorder
	log        *logrus.Entry

	timeout  time.Duration
	tokenTTL time.Duration

	mu       sync.Mutex
	pending  map[string]ClaimSummary
	inflight map[uint64]bool
}

func NewClaimer(gw ledger.Gateway, store *Store, resolver *Resolver, reconciler *Reconciler, recorder Recorder, timeout time.Duration) *Claimer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Claimer{
		gw:         gw,
		store:      store,
		resolver:   resolver,
		reconciler: reconciler,
		recorder:   recorder,
		log:        logrus.WithField("component", "claimer"),
		timeout:    timeout,
		tokenTTL:   2 * time.Minute,
		pending:    make(map[string]ClaimSummary),
		inflight:   make(map[uint64]bool),
	}
}

// Prepare validates a claim request against the store and returns the
// summary to confirm. Preconditions are checked in order so each failure
// mode surfaces its own rejection: record exists, record is owned, resolved
// pending balance is positive. None of these reach the ledger gateway.
func (c *Claimer) Prepare(assetID uint64) (*ClaimSummary, error) {
	if c.store.Account() == "" {
		return nil, ErrNoActiveAccount
	}

	rec, ok := c.store.Get(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrUnknownRecord)
	}
	if !rec.OwnedByAccount {
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrNotOwner)
	}

	res := c.resolver.Resolve(assetID)
	if res.Record.Pending.Sign() <= 0 {
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrNothingPending)
	}

	summary := ClaimSummary{
		AssetID:      assetID,
		TargetID:     res.TargetID,
		Amount:       res.Record.Pending,
		PoolFallback: res.PoolFallback,
		ConfirmToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(c.tokenTTL),
	}

	c.mu.Lock()
	c.pending[summary.ConfirmToken] = summary
	c.mu.Unlock()

	return &summary, nil
}

// Confirm redeems a confirmation token and issues the ledger write. The
// token is single-use; a second confirm with the same token is rejected.
// While the write is outstanding no other claim may target the same id;
// claims against different ids proceed independently.
func (c *Claimer) Confirm(ctx context.Context, assetID uint64, token string) (*ClaimResult, error) {
	c.mu.Lock()
	summary, ok := c.pending[token]
	if !ok || summary.AssetID != assetID || time.Now().After(summary.ExpiresAt) {
		c.mu.Unlock()
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrBadConfirmation)
	}
	delete(c.pending, token)
	if c.inflight[summary.TargetID] {
		c.mu.Unlock()
		return nil, fmt.Errorf("asset %d: %w", summary.TargetID, ErrClaimInFlight)
	}
	c.inflight[summary.TargetID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, summary.TargetID)
		c.mu.Unlock()
	}()

	account := c.store.Account()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.gw.ClaimRoyalty(callCtx, summary.TargetID)
	if err != nil {
		// The store is left untouched; the user may retry once the
		// gateway failure clears.
		metrics.ClaimsTotal.WithLabelValues("failed").Inc()
		c.record(ctx, account, summary, "", models.ClaimStatusFailed)
		return nil, fmt.Errorf("claim for asset %d failed: %w", summary.TargetID, err)
	}

	metrics.ClaimsTotal.WithLabelValues("confirmed").Inc()
	c.log.WithFields(logrus.Fields{
		"asset_id":  summary.AssetID,
		"target_id": summary.TargetID,
		"amount":    receipt.Amount.String(),
		"tx_hash":   receipt.TxHash,
	}).Info("Royalty claim confirmed")

	c.record(ctx, account, summary, receipt.TxHash, models.ClaimStatusConfirmed)

	// Post-claim refresh: the claimed id plus (unconditionally) the pool,
	// then the whole owned set to catch second-order effects.
	if err := c.reconciler.ReconcileAsset(ctx, summary.TargetID, TriggerClaim); err != nil {
		c.log.WithError(err).Warn("Post-claim reconciliation failed")
	}
	if summary.TargetID != summary.AssetID {
		if err := c.reconciler.ReconcileAsset(ctx, summary.AssetID, TriggerClaim); err != nil {
			c.log.WithError(err).Warn("Post-claim reconciliation failed")
		}
	}
	if err := c.reconciler.ReconcileAccount(ctx, TriggerClaim); err != nil {
		c.log.WithError(err).Warn("Post-claim bulk refresh failed")
	}

	rec, _ := c.store.Get(summary.AssetID)
	return &ClaimResult{
		AssetID:  summary.AssetID,
		TargetID: summary.TargetID,
		Amount:   receipt.Amount,
		TxHash:   receipt.TxHash,
		Record:   rec,
	}, nil
}

func (c *Claimer) record(ctx context.Context, account string, summary ClaimSummary, txHash string, status models.ClaimStatus) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.RecordClaim(ctx, &models.ClaimReceipt{
		Account:  account,
		AssetID:  summary.AssetID,
		TargetID: summary.TargetID,
		Amount:   summary.Amount,
		TxHash:   txHash,
		Status:   status,
	})
	if err != nil {
		c.log.WithError(err).Error("Failed to persist claim receipt")
	}
}
