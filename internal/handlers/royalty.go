// internal/handlers/royalty.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/database"
	"github.com/javajoker/imi-royalty/internal/events"
	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/metrics"
	"github.com/javajoker/imi-royalty/internal/royalty"
	"github.com/javajoker/imi-royalty/internal/utils"
)

type RoyaltyHandler struct {
	gw         ledger.Gateway
	store      *royalty.Store
	resolver   *royalty.Resolver
	reconciler *royalty.Reconciler
	claimer    *royalty.Claimer
	bus        *events.Bus
	flags      *events.FlagStore
	receipts   *database.ReceiptStore
}

func NewRoyaltyHandler(gw ledger.Gateway, store *royalty.Store, resolver *royalty.Resolver, reconciler *royalty.Reconciler, claimer *royalty.Claimer, bus *events.Bus, flags *events.FlagStore, receipts *database.ReceiptStore) *RoyaltyHandler {
	return &RoyaltyHandler{
		gw:         gw,
		store:      store,
		resolver:   resolver,
		reconciler: reconciler,
		claimer:    claimer,
		bus:        bus,
		flags:      flags,
		receipts:   receipts,
	}
}

func parseAssetID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Asset id must be a non-negative integer", nil)
		return 0, false
	}
	return id, true
}

// ListRoyalties returns the store snapshot for the active account.
func (h *RoyaltyHandler) ListRoyalties(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"account":   h.store.Account(),
		"royalties": h.store.Snapshot(),
	})
}

// GetRoyalty returns the attribution-resolved record for an asset id — the
// record a claim for that id would actually draw from.
func (h *RoyaltyHandler) GetRoyalty(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, h.resolver.Resolve(id))
}

// PrepareClaim validates a claim and returns the confirmable summary.
func (h *RoyaltyHandler) PrepareClaim(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	summary, err := h.claimer.Prepare(id)
	if err != nil {
		h.rejectClaim(c, err)
		return
	}
	utils.SuccessResponse(c, summary)
}

type confirmClaimRequest struct {
	ConfirmToken string `json:"confirm_token" validate:"required"`
}

// ConfirmClaim redeems a confirmation token and executes the ledger write.
func (h *RoyaltyHandler) ConfirmClaim(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	var req confirmClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	result, err := h.claimer.Confirm(c.Request.Context(), id, req.ConfirmToken)
	if err != nil {
		h.rejectClaim(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// rejectClaim maps engine and gateway failures onto distinct API errors so
// the UI can show a specific, actionable message for each.
func (h *RoyaltyHandler) rejectClaim(c *gin.Context, err error) {
	switch {
	case errors.Is(err, royalty.ErrNoActiveAccount):
		utils.UnauthorizedResponse(c, "No active wallet session")
	case errors.Is(err, royalty.ErrUnknownRecord):
		utils.NotFoundResponse(c, "Royalty record")
	case errors.Is(err, royalty.ErrNotOwner), errors.Is(err, ledger.ErrInsufficientAuthorization):
		utils.ForbiddenResponse(c, "Active account does not own this asset")
	case errors.Is(err, royalty.ErrNothingPending), errors.Is(err, ledger.ErrUnavailable):
		utils.BadRequestResponse(c, "No pending royalty balance to claim", nil)
	case errors.Is(err, royalty.ErrClaimInFlight):
		utils.ConflictResponse(c, "A claim for this asset is already in flight")
	case errors.Is(err, royalty.ErrBadConfirmation):
		utils.BadRequestResponse(c, "Unknown or expired claim confirmation", nil)
	case errors.Is(err, ledger.ErrRejected):
		utils.GatewayErrorResponse(c, "The ledger rejected the claim transaction")
	default:
		logrus.WithError(err).Error("Claim failed")
		utils.GatewayErrorResponse(c, "")
	}
}

// Refresh re-runs the bulk reconciliation for the active account.
func (h *RoyaltyHandler) Refresh(c *gin.Context) {
	if err := h.reconciler.ReconcileAccount(c.Request.Context(), royalty.TriggerManual); err != nil {
		if errors.Is(err, royalty.ErrNoActiveAccount) {
			utils.UnauthorizedResponse(c, "No active wallet session")
			return
		}
		logrus.WithError(err).Error("Manual refresh failed")
		utils.GatewayErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, gin.H{
		"account":   h.store.Account(),
		"royalties": h.store.Snapshot(),
	})
}

type notifyRequest struct {
	AssetID uint64 `json:"asset_id"`
}

// Notify ingests an external "royalty changed" signal. It is published on
// the in-process bus and persisted as a flag so the poll backstop delivers
// it even if the event is missed; duplicates are harmless.
func (h *RoyaltyHandler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	metrics.NotificationsTotal.Inc()
	if err := h.flags.Mark(req.AssetID); err != nil {
		logrus.WithError(err).Warn("Failed to persist notification flag")
	}
	h.bus.Publish(events.RoyaltyChanged{AssetID: req.AssetID})

	utils.SuccessResponse(c, gin.H{"asset_id": req.AssetID})
}

// GetAsset proxies a typed asset lookup through the ledger gateway.
func (h *RoyaltyHandler) GetAsset(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	asset, err := h.gw.GetAsset(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			utils.NotFoundResponse(c, "Asset")
			return
		}
		logrus.WithError(err).WithField("asset_id", id).Error("Asset lookup failed")
		utils.GatewayErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, asset)
}

// ListReceipts returns the active account's persisted claim history.
func (h *RoyaltyHandler) ListReceipts(c *gin.Context) {
	account, ok := utils.GetAccountFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	if h.receipts == nil {
		utils.SuccessResponse(c, gin.H{"receipts": []struct{}{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	receipts, err := h.receipts.ListByAccount(c.Request.Context(), account, limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list claim receipts")
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, gin.H{"receipts": receipts})
}
