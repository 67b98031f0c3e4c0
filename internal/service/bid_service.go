package service

import (
	"context"
	"fmt"
	"time"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidServiceImpl implements ports.BidService.
type BidServiceImpl struct {
	bidRepo     ports.BidRepository
	lotRepo     ports.LotRepository
	petRepo     ports.PetRepository
	accountRepo ports.AccountRepository
	ledger      ports.LedgerService
	log         zerolog.Logger
}

// NewBidService creates a new BidServiceImpl.
func NewBidService(
	bidRepo ports.BidRepository,
	lotRepo ports.LotRepository,
	petRepo ports.PetRepository,
	accountRepo ports.AccountRepository,
	ledger ports.LedgerService,
	log zerolog.Logger,
) *BidServiceImpl {
	return &BidServiceImpl{
		bidRepo:     bidRepo,
		lotRepo:     lotRepo,
		petRepo:     petRepo,
		accountRepo: accountRepo,
		ledger:      ledger,
		log:         log,
	}
}

// Place admits a bid against an open lot. Every rule is checked before
// any row is written: lot open, bidder is not the author, one bid per
// (bidder, lot), and the price fits the bidder's available balance.
// Placement reserves funds only through the ledger's derived
// computation; the stored balance is untouched.
func (s *BidServiceImpl) Place(ctx context.Context, req ports.PlaceBidRequest) (*ports.BidDetail, error) {
	if !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be positive")
	}

	lot, err := s.lotRepo.GetByID(ctx, req.LotID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get lot: %w", err))
	}
	if lot == nil {
		return nil, apperror.ErrNotFound("lot")
	}
	if lot.IsClosed() {
		return nil, apperror.ErrLotAlreadyClosed()
	}
	if lot.AuthorID == req.BidderID {
		return nil, apperror.ErrCannotBidInOwnLot()
	}

	alreadyBid, err := s.bidRepo.ExistsForLot(ctx, req.LotID, req.BidderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing bid: %w", err))
	}
	if alreadyBid {
		return nil, apperror.ErrOnlyOneBidAllowed()
	}

	available, err := s.ledger.AvailableBalance(ctx, req.BidderID)
	if err != nil {
		return nil, err
	}
	if req.Price.GreaterThan(available) {
		return nil, apperror.ErrInsufficientBalance()
	}

	bid := &domain.Bid{
		ID:        uuid.New(),
		LotID:     req.LotID,
		AuthorID:  req.BidderID,
		Price:     req.Price,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create bid: %w", err))
	}

	s.log.Info().
		Str("bid_id", bid.ID.String()).
		Str("lot_id", req.LotID.String()).
		Str("bidder_id", req.BidderID.String()).
		Str("price", req.Price.StringFixed(2)).
		Msg("bid placed")

	return s.bidDetail(ctx, bid, lot)
}

// Withdraw deletes the caller's bid while the lot is still open.
// Deleting the row restores available balance automatically since
// availability is derived, not stored.
func (s *BidServiceImpl) Withdraw(ctx context.Context, bidID, requesterID uuid.UUID) error {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get bid: %w", err))
	}
	if bid == nil {
		return apperror.ErrNotFound("bid")
	}
	if bid.AuthorID != requesterID {
		return apperror.ErrUserIsNotAuthorForBid()
	}

	lot, err := s.lotRepo.GetByID(ctx, bid.LotID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get lot: %w", err))
	}
	if lot == nil {
		return apperror.ErrNotFound("lot")
	}
	if lot.IsClosed() {
		return apperror.ErrLotAlreadyClosed()
	}

	if err := s.bidRepo.Delete(ctx, bidID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete bid: %w", err))
	}

	s.log.Info().
		Str("bid_id", bidID.String()).
		Str("lot_id", bid.LotID.String()).
		Msg("bid withdrawn")
	return nil
}

// ListActive returns all bids whose lot is still open.
func (s *BidServiceImpl) ListActive(ctx context.Context) ([]ports.BidDetail, error) {
	bids, err := s.bidRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list active bids: %w", err))
	}
	return bids, nil
}

// bidDetail assembles the display projection for a freshly placed bid.
func (s *BidServiceImpl) bidDetail(ctx context.Context, bid *domain.Bid, lot *domain.Lot) (*ports.BidDetail, error) {
	pet, err := s.petRepo.GetByID(ctx, lot.PetID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get pet: %w", err))
	}
	if pet == nil {
		return nil, apperror.ErrNotFound("pet")
	}

	lotAuthor, err := s.accountRepo.GetByID(ctx, lot.AuthorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get lot author: %w", err))
	}
	bidder, err := s.accountRepo.GetByID(ctx, bid.AuthorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get bidder: %w", err))
	}
	if lotAuthor == nil || bidder == nil {
		return nil, apperror.ErrNotFound("account")
	}

	return &ports.BidDetail{
		ID:     bid.ID,
		Price:  bid.Price,
		Author: bidder.Username,
		Lot: ports.LotSummary{
			ID:     lot.ID,
			Pet:    *pet,
			Price:  lot.Price,
			Author: lotAuthor.Username,
		},
	}, nil
}
