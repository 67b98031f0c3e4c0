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

// LotServiceImpl implements ports.LotService.
type LotServiceImpl struct {
	lotRepo     ports.LotRepository
	petRepo     ports.PetRepository
	bidRepo     ports.BidRepository
	accountRepo ports.AccountRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLotService creates a new LotServiceImpl.
func NewLotService(
	lotRepo ports.LotRepository,
	petRepo ports.PetRepository,
	bidRepo ports.BidRepository,
	accountRepo ports.AccountRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LotServiceImpl {
	return &LotServiceImpl{
		lotRepo:     lotRepo,
		petRepo:     petRepo,
		bidRepo:     bidRepo,
		accountRepo: accountRepo,
		transactor:  transactor,
		log:         log,
	}
}

// Create opens a new lot for a pet the author owns. At most one open
// lot may exist per (pet, author) pair.
func (s *LotServiceImpl) Create(ctx context.Context, req ports.CreateLotRequest) (*ports.LotSummary, error) {
	if !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be positive")
	}

	pet, err := s.petRepo.GetByID(ctx, req.PetID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get pet: %w", err))
	}
	if pet == nil {
		return nil, apperror.ErrNotFound("pet")
	}
	if pet.OwnerID != req.AuthorID {
		return nil, apperror.ErrUserNotOwnPet()
	}

	exists, err := s.lotRepo.OpenLotExists(ctx, req.PetID, req.AuthorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check open lot: %w", err))
	}
	if exists {
		return nil, apperror.ErrLotExists()
	}

	lot := &domain.Lot{
		ID:        uuid.New(),
		PetID:     req.PetID,
		AuthorID:  req.AuthorID,
		Price:     req.Price,
		Status:    domain.LotStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create lot: %w", err))
	}

	author, err := s.accountRepo.GetByID(ctx, req.AuthorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get author: %w", err))
	}
	if author == nil {
		return nil, apperror.ErrNotFound("account")
	}

	s.log.Info().
		Str("lot_id", lot.ID.String()).
		Str("pet_id", pet.ID.String()).
		Str("author", author.Username).
		Str("price", lot.Price.StringFixed(2)).
		Msg("lot opened")

	return &ports.LotSummary{
		ID:     lot.ID,
		Pet:    *pet,
		Price:  lot.Price,
		Author: author.Username,
	}, nil
}

// Close transitions the lot OPEN -> CLOSED. Only the author may close,
// and a closed lot can never be closed again. The status check is
// re-executed under a row lock so a concurrent settlement cannot race
// the same transition.
func (s *LotServiceImpl) Close(ctx context.Context, lotID, requesterID uuid.UUID) error {
	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get lot: %w", err))
	}
	if lot == nil {
		return apperror.ErrNotFound("lot")
	}
	if lot.AuthorID != requesterID {
		return apperror.ErrUserIsNotAuthorForLot()
	}
	if lot.IsClosed() {
		return apperror.ErrLotAlreadyClosed()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.lotRepo.GetByIDForUpdate(ctx, dbTx, lotID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock lot: %w", err))
	}
	if locked == nil {
		return apperror.ErrNotFound("lot")
	}
	if locked.IsClosed() {
		return apperror.ErrLotAlreadyClosed()
	}

	if err := s.lotRepo.Close(ctx, dbTx, lotID); err != nil {
		return apperror.InternalError(fmt.Errorf("close lot: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("lot_id", lotID.String()).Msg("lot closed by author")
	return nil
}

// ListOpen returns all open lots with their pets and author names.
func (s *LotServiceImpl) ListOpen(ctx context.Context) ([]ports.LotSummary, error) {
	lots, err := s.lotRepo.ListOpen(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list open lots: %w", err))
	}
	return lots, nil
}

// ListBids returns the active bids on a lot. Bids on closed lots are
// inert and excluded from the active view.
func (s *LotServiceImpl) ListBids(ctx context.Context, lotID uuid.UUID) ([]ports.BidSummary, error) {
	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get lot: %w", err))
	}
	if lot == nil {
		return nil, apperror.ErrNotFound("lot")
	}

	bids, err := s.bidRepo.ListActiveByLot(ctx, lotID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list lot bids: %w", err))
	}
	return bids, nil
}
