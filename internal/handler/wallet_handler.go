package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/service"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type reconciliationService interface {
	ReconcileWallet(ctx context.Context, ref service.WalletRef, fix bool) (*service.ReconcileResult, error)
	Scan(ctx context.Context) (map[models.OwnerKind]int, error)
}

// WalletHandler exposes wallet reconciliation against the ledger.
type WalletHandler struct {
	reconcile reconciliationService
}

// NewWalletHandler constructs the handler.
func NewWalletHandler(reconcile reconciliationService) *WalletHandler {
	return &WalletHandler{reconcile: reconcile}
}

// Reconcile godoc
// @Summary Compare a wallet with its ledger
// @Tags Wallets
// @Produce json
// @Param kind path string true "student or company"
// @Param id path string true "Owner ID"
// @Param fix query bool false "Reset the wallet to the ledger balance"
// @Success 200 {object} response.Envelope
// @Router /wallets/{kind}/{id}/reconcile [post]
func (h *WalletHandler) Reconcile(c *gin.Context) {
	fix, err := queryBool(c, "fix")
	if err != nil {
		response.Error(c, err)
		return
	}
	ref := service.WalletRef{OwnerKind: models.OwnerKind(c.Param("kind")), OwnerID: c.Param("id")}
	result, err := h.reconcile.ReconcileWallet(c.Request.Context(), ref, fix)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Scan godoc
// @Summary Scan all wallets for drift
// @Tags Wallets
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /wallets/reconcile [post]
func (h *WalletHandler) Scan(c *gin.Context) {
	counts, err := h.reconcile.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, counts)
}
