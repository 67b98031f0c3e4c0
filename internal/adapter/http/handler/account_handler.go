package handler

import (
	"pet-auction-house/internal/adapter/http/dto"
	"pet-auction-house/internal/adapter/http/middleware"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"
	"pet-auction-house/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account profile endpoints.
type AccountHandler struct {
	ledgerSvc ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerSvc ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc}
}

// GetProfile handles GET /api/v1/accounts/me.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	account, err := h.ledgerSvc.GetAccount(c.Request.Context(), accountID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	available, err := h.ledgerSvc.AvailableBalance(c.Request.Context(), account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AccountResponse{
		ID:               account.ID.String(),
		Username:         account.Username,
		Balance:          account.Balance.StringFixed(2),
		AvailableBalance: available.StringFixed(2),
	})
}
