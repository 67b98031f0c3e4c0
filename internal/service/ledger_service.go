package service

import (
	"context"
	"fmt"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// Available balance is derived, never stored: the stored balance minus
// the sum of the account's bids on open lots. Withdrawing a bid or
// closing a lot restores availability automatically.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(accountRepo ports.AccountRepository) *LedgerServiceImpl {
	return &LedgerServiceImpl{accountRepo: accountRepo}
}

// AvailableBalance returns balance minus open bid exposure.
func (s *LedgerServiceImpl) AvailableBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return decimal.Zero, apperror.ErrNotFound("account")
	}

	exposure, err := s.accountRepo.SumOpenBids(ctx, accountID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("sum open bids: %w", err))
	}

	return account.Balance.Sub(exposure), nil
}

// GetAccount fetches an account by ID.
func (s *LedgerServiceImpl) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return account, nil
}
