package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/service"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type paymentService interface {
	AddPayment(ctx context.Context, req service.ManualPaymentRequest) (*models.Transaction, error)
	Recent(ctx context.Context, limit int) ([]models.PaymentRecord, error)
}

// PaymentHandler exposes manual payments.
type PaymentHandler struct {
	payments paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create godoc
// @Summary Record a manual payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.ManualPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid payment payload"))
		return
	}
	txn, err := h.payments.AddPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, txn)
}

// Recent godoc
// @Summary List recent manual payments
// @Tags Payments
// @Produce json
// @Param limit query int false "Maximum rows (default 10, max 100)"
// @Success 200 {object} response.Envelope
// @Router /payments/recent [get]
func (h *PaymentHandler) Recent(c *gin.Context) {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.payments.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}
