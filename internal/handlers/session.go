// internal/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/config"
	"github.com/javajoker/imi-royalty/internal/royalty"
	"github.com/javajoker/imi-royalty/internal/utils"
)

type SessionHandler struct {
	reconciler *royalty.Reconciler
	store      *royalty.Store
	cfg        *config.Config
}

func NewSessionHandler(reconciler *royalty.Reconciler, store *royalty.Store, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		reconciler: reconciler,
		store:      store,
		cfg:        cfg,
	}
}

type openSessionRequest struct {
	Account string `json:"account" validate:"required,account"`
}

// OpenSession binds the service to a wallet account and loads its royalty
// set. Proving control of the account (wallet signature) is the caller's
// concern; this service only scopes its cache to it.
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	if err := h.reconciler.SetAccount(c.Request.Context(), req.Account); err != nil {
		logrus.WithError(err).WithField("account", req.Account).Error("Failed to load account royalties")
		utils.GatewayErrorResponse(c, "Failed to load royalties for account")
		return
	}

	token, err := utils.GenerateJWT(req.Account, h.cfg.JWT.SessionTTL)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"token":   token,
		"account": req.Account,
		"records": h.store.Len(),
	})
}

// SwitchAccount swaps the active account. The previous account's cache is
// invalidated wholesale; results of its in-flight fetches are discarded.
func (h *SessionHandler) SwitchAccount(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	if err := h.reconciler.SetAccount(c.Request.Context(), req.Account); err != nil {
		logrus.WithError(err).WithField("account", req.Account).Error("Failed to load account royalties")
		utils.GatewayErrorResponse(c, "Failed to load royalties for account")
		return
	}

	token, err := utils.GenerateJWT(req.Account, h.cfg.JWT.SessionTTL)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":   token,
		"account": req.Account,
		"records": h.store.Len(),
	})
}
