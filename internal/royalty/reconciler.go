// internal/royalty/reconciler.go
package royalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/events"
	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/metrics"
	"github.com/javajoker/imi-royalty/internal/models"
)

// Trigger labels the path that initiated a reconciliation.
type Trigger string

const (
	TriggerSession Trigger = "session"
	TriggerEvent   Trigger = "event"
	TriggerPoll    Trigger = "poll"
	TriggerClaim   Trigger = "claim"
	TriggerManual  Trigger = "manual"
)

// Reconciler keeps the royalty store eventually consistent with the ledger.
// Every trigger path (session start, bus event, poll backstop, post-claim)
// funnels into the same per-asset reconcile, which is idempotent: re-running
// it against unchanged ledger state converges to identical store content.
type Reconciler struct {
	gw    ledger.Gateway
	store *Store
	bus   *events.Bus
	flags *events.FlagStore
	log   *logrus.Entry

	mu sync.Mutex
	// seq tags each fetch per asset id; applied records the newest tag that
	// reached the store. A response older than applied is dropped so
	// out-of-order arrivals cannot roll the cache backwards.
	seq     map[uint64]uint64
	applied map[uint64]uint64
	// generation advances on account switch; results tagged with an old
	// generation are discarded instead of merging into the new account's
	// store.
	generation uint64

	cron        *cron.Cron
	unsubscribe func()
}

func NewReconciler(gw ledger.Gateway, store *Store, bus *events.Bus, flags *events.FlagStore) *Reconciler {
	return &Reconciler{
		gw:      gw,
		store:   store,
		bus:     bus,
		flags:   flags,
		log:     logrus.WithField("component", "reconciler"),
		seq:     make(map[uint64]uint64),
		applied: make(map[uint64]uint64),
	}
}

// Start subscribes to royalty-changed events and schedules the poll
// backstop. pollSpec is a six-field cron expression (seconds granularity).
func (r *Reconciler) Start(pollSpec string) error {
	r.unsubscribe = r.bus.Subscribe(func(ev events.RoyaltyChanged) {
		if err := r.ReconcileAsset(context.Background(), ev.AssetID, TriggerEvent); err != nil && !errors.Is(err, ErrNoActiveAccount) {
			r.log.WithError(err).WithField("asset_id", ev.AssetID).Warn("Event-triggered reconciliation failed")
		}
	})

	r.cron = cron.New(cron.WithSeconds())
	if _, err := r.cron.AddFunc(pollSpec, r.pollOnce); err != nil {
		r.unsubscribe()
		return fmt.Errorf("invalid poll schedule %q: %w", pollSpec, err)
	}
	r.cron.Start()
	return nil
}

func (r *Reconciler) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// pollOnce drains the persisted notification flags. Ledger-originated
// changes do not always emit a local event, so this timed path backstops
// the bus. Duplicate flags are harmless; reconciliation is idempotent.
func (r *Reconciler) pollOnce() {
	ids, err := r.flags.Drain()
	if err != nil {
		r.log.WithError(err).Warn("Failed to drain notification flags")
		return
	}
	for _, id := range ids {
		if err := r.ReconcileAsset(context.Background(), id, TriggerPoll); err != nil && !errors.Is(err, ErrNoActiveAccount) {
			r.log.WithError(err).WithField("asset_id", id).Warn("Poll-triggered reconciliation failed")
		}
	}
}

// callerBinder is implemented by gateways whose signing identity follows the
// session account (the in-memory ledger). The EVM gateway signs with its
// configured key and does not implement it.
type callerBinder interface {
	SetCaller(account string)
}

// SetAccount switches the active account: the old cache is invalidated
// wholesale, in-flight results for the old account are fenced off via the
// generation counter, and the new account's royalty set is loaded in bulk.
func (r *Reconciler) SetAccount(ctx context.Context, account string) error {
	r.mu.Lock()
	r.generation++
	r.store.ResetForAccount(account)
	r.mu.Unlock()

	if binder, ok := r.gw.(callerBinder); ok {
		binder.SetCaller(account)
	}

	if account == "" {
		return nil
	}
	return r.ReconcileAccount(ctx, TriggerSession)
}

// begin tags a fetch; commit applies it unless a newer fetch for the same
// id already landed or the account generation moved on.
func (r *Reconciler) begin(id uint64) (gen, tag uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[id]++
	return r.generation, r.seq[id]
}

func (r *Reconciler) commit(id, gen, tag uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	if r.applied[id] >= tag {
		return false
	}
	r.applied[id] = tag
	return true
}

// ReconcileAsset refreshes the record for id and then unconditionally the
// sentinel pool record, since any claim or deposit may have shifted the
// pool aggregate.
func (r *Reconciler) ReconcileAsset(ctx context.Context, id uint64, trigger Trigger) error {
	if _, err := r.reconcileOne(ctx, id, trigger); err != nil {
		return err
	}
	if id != models.PoolAssetID {
		if _, err := r.reconcileOne(ctx, models.PoolAssetID, trigger); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileAccount loads the full royalty picture for the active account:
// every owned asset, the parent of every owned remix (so a creator sees
// royalties for originals they don't separately track), and the pool.
func (r *Reconciler) ReconcileAccount(ctx context.Context, trigger Trigger) error {
	account := r.store.Account()
	if account == "" {
		return ErrNoActiveAccount
	}

	ids, err := r.gw.GetOwnedAssetIDs(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to enumerate owned assets: %w", err)
	}

	seen := make(map[uint64]bool, len(ids))
	var parents []uint64
	for _, id := range ids {
		seen[id] = true
		asset, err := r.reconcileOne(ctx, id, trigger)
		if err != nil {
			return err
		}
		if asset != nil && asset.IsRemix() {
			parents = append(parents, asset.ParentID)
		}
	}
	for _, parent := range parents {
		if seen[parent] {
			continue
		}
		seen[parent] = true
		if _, err := r.reconcileOne(ctx, parent, trigger); err != nil {
			return err
		}
	}

	_, err = r.reconcileOne(ctx, models.PoolAssetID, trigger)
	return err
}

// reconcileOne fetches ownership and balances for one id and merges them
// into the store, unless the result went stale while in flight. Returns the
// fetched asset for non-pool ids so bulk reconciliation can chase parents.
func (r *Reconciler) reconcileOne(ctx context.Context, id uint64, trigger Trigger) (*models.Asset, error) {
	account := r.store.Account()
	if account == "" {
		return nil, ErrNoActiveAccount
	}

	gen, tag := r.begin(id)

	var (
		asset  *models.Asset
		owned  bool
		origin bool
	)
	if id == models.PoolAssetID {
		// The pool is not an asset; its ownership flag reflects whether the
		// account holds any token the aggregate could be paid out against.
		ownedIDs, err := r.gw.GetOwnedAssetIDs(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve pool ownership: %w", err)
		}
		owned = len(ownedIDs) > 0
	} else {
		var err error
		asset, err = r.gw.GetAsset(ctx, id)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			// Placeholder record: keep it non-claimable.
		case err != nil:
			return nil, fmt.Errorf("failed to fetch asset %d: %w", id, err)
		default:
			origin = true
			owned = strings.EqualFold(asset.Owner, account)
		}
	}

	balance, err := r.gw.GetRoyaltyBalance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch royalty balance for %d: %w", id, err)
	}

	if !r.commit(id, gen, tag) {
		metrics.StaleDropsTotal.Inc()
		r.log.WithFields(logrus.Fields{
			"asset_id": id,
			"trigger":  string(trigger),
		}).Debug("Dropped stale reconciliation result")
		return asset, nil
	}

	r.store.Upsert(id, Patch{
		Pending: &balance.Pending,
		Claimed: &balance.Claimed,
		Owned:   &owned,
		Origin:  &origin,
	})
	metrics.ReconciliationsTotal.WithLabelValues(string(trigger)).Inc()
	return asset, nil
}
