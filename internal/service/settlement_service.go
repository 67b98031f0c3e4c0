package service

import (
	"context"
	"fmt"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService.
//
// AcceptBid is the only multi-step mutation in the system and runs as
// a single database transaction with pessimistic locking: either the
// pet changes owner, both balances move, and the lot closes — or
// nothing happens at all.
type SettlementServiceImpl struct {
	bidRepo     ports.BidRepository
	lotRepo     ports.LotRepository
	petRepo     ports.PetRepository
	accountRepo ports.AccountRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	bidRepo ports.BidRepository,
	lotRepo ports.LotRepository,
	petRepo ports.PetRepository,
	accountRepo ports.AccountRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		bidRepo:     bidRepo,
		lotRepo:     lotRepo,
		petRepo:     petRepo,
		accountRepo: accountRepo,
		transactor:  transactor,
		log:         log,
	}
}

// AcceptBid settles an auction: the lot author accepts one bid, the
// pet transfers to the bidder, the bid price moves from bidder to
// author, and the lot closes. Other bids on the lot are left in place;
// the closed lot makes them inert.
func (s *SettlementServiceImpl) AcceptBid(ctx context.Context, bidID, requesterID uuid.UUID) error {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get bid: %w", err))
	}
	if bid == nil {
		return apperror.ErrNotFound("bid")
	}

	lot, err := s.lotRepo.GetByID(ctx, bid.LotID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get lot: %w", err))
	}
	if lot == nil {
		return apperror.ErrNotFound("lot")
	}
	if lot.AuthorID != requesterID {
		return apperror.ErrCanOnlyAcceptBidForOwnLot()
	}
	if lot.IsClosed() {
		return apperror.ErrLotAlreadyClosed()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the lot first and re-check its status: a concurrent accept
	// or close must not settle the same lot twice.
	lockedLot, err := s.lotRepo.GetByIDForUpdate(ctx, dbTx, lot.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock lot: %w", err))
	}
	if lockedLot == nil {
		return apperror.ErrNotFound("lot")
	}
	if lockedLot.IsClosed() {
		return apperror.ErrLotAlreadyClosed()
	}

	seller, buyer, err := s.lockAccounts(ctx, dbTx, lockedLot.AuthorID, bid.AuthorID)
	if err != nil {
		return err
	}

	// Balance floor check inside the locked section: the stored
	// balance must cover the bid even if the bidder's funds were
	// committed elsewhere since placement.
	if buyer.Balance.LessThan(bid.Price) {
		return apperror.ErrInsufficientBalance()
	}

	if err := s.petRepo.UpdateOwner(ctx, dbTx, lockedLot.PetID, bid.AuthorID); err != nil {
		return apperror.InternalError(fmt.Errorf("transfer pet: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, seller.ID, seller.Balance.Add(bid.Price)); err != nil {
		return apperror.InternalError(fmt.Errorf("credit seller: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, buyer.ID, buyer.Balance.Sub(bid.Price)); err != nil {
		return apperror.InternalError(fmt.Errorf("debit buyer: %w", err))
	}
	if err := s.lotRepo.Close(ctx, dbTx, lockedLot.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("close lot: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("bid_id", bid.ID.String()).
		Str("lot_id", lockedLot.ID.String()).
		Str("pet_id", lockedLot.PetID.String()).
		Str("seller_id", seller.ID.String()).
		Str("buyer_id", buyer.ID.String()).
		Str("price", bid.Price.StringFixed(2)).
		Msg("bid accepted, lot settled")

	return nil
}

// lockAccounts locks the seller and buyer rows in deterministic ID
// order so two settlements touching the same pair cannot deadlock.
func (s *SettlementServiceImpl) lockAccounts(ctx context.Context, tx pgx.Tx, sellerID, buyerID uuid.UUID) (*domain.Account, *domain.Account, error) {
	first, second := sellerID, buyerID
	if buyerID.String() < sellerID.String() {
		first, second = buyerID, sellerID
	}

	firstAcct, err := s.accountRepo.GetByIDForUpdate(ctx, tx, first)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	secondAcct, err := s.accountRepo.GetByIDForUpdate(ctx, tx, second)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if firstAcct == nil || secondAcct == nil {
		return nil, nil, apperror.ErrNotFound("account")
	}

	if firstAcct.ID == sellerID {
		return firstAcct, secondAcct, nil
	}
	return secondAcct, firstAcct, nil
}
