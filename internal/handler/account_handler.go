package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type accountService interface {
	StudentBalance(ctx context.Context, studentID string) (*models.StudentBalance, error)
}

// AccountHandler exposes student wallets.
type AccountHandler struct {
	accounts accountService
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// StudentBalance godoc
// @Summary Student wallet and remaining lesson time
// @Tags Accounts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/balance [get]
func (h *AccountHandler) StudentBalance(c *gin.Context) {
	balance, err := h.accounts.StudentBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance)
}
