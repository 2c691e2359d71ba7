package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type catalogService interface {
	Currencies(ctx context.Context) ([]models.Currency, error)
	TransactionTypes(ctx context.Context) ([]models.TransactionType, error)
	Invalidate(ctx context.Context)
}

// CatalogHandler exposes billing reference data.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Currencies godoc
// @Summary List currencies
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /currencies [get]
func (h *CatalogHandler) Currencies(c *gin.Context) {
	currencies, err := h.catalog.Currencies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, currencies)
}

// TransactionTypes godoc
// @Summary List transaction types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transaction-types [get]
func (h *CatalogHandler) TransactionTypes(c *gin.Context) {
	types, err := h.catalog.TransactionTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types)
}

// Invalidate godoc
// @Summary Drop cached plans, currencies and transaction types
// @Tags Catalog
// @Success 204
// @Router /catalog/cache [delete]
func (h *CatalogHandler) Invalidate(c *gin.Context) {
	h.catalog.Invalidate(c.Request.Context())
	response.NoContent(c)
}
