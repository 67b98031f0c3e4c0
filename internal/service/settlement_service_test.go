package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports/mocks"
	"pet-auction-house/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementFixture struct {
	ctrl        *gomock.Controller
	bidRepo     *mocks.MockBidRepository
	lotRepo     *mocks.MockLotRepository
	petRepo     *mocks.MockPetRepository
	accountRepo *mocks.MockAccountRepository
	transactor  *mocks.MockDBTransactor
	svc         *SettlementServiceImpl

	seller *domain.Account
	buyer  *domain.Account
	pet    *domain.Pet
	lot    *domain.Lot
	bid    *domain.Bid
}

// newSettlementFixture wires a seller (UUID sorting after the buyer),
// a buyer, one open lot and one bid of 30.00 against starting balances
// of 100.00 each.
func newSettlementFixture(t *testing.T) *settlementFixture {
	ctrl := gomock.NewController(t)
	f := &settlementFixture{
		ctrl:        ctrl,
		bidRepo:     mocks.NewMockBidRepository(ctrl),
		lotRepo:     mocks.NewMockLotRepository(ctrl),
		petRepo:     mocks.NewMockPetRepository(ctrl),
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
	}
	f.svc = NewSettlementService(f.bidRepo, f.lotRepo, f.petRepo, f.accountRepo, f.transactor, zerolog.Nop())

	now := time.Now().UTC()
	f.seller = &domain.Account{
		ID:       uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002"),
		Username: "seller",
		Balance:  decimal.RequireFromString("100.00"),
	}
	f.buyer = &domain.Account{
		ID:       uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		Username: "buyer",
		Balance:  decimal.RequireFromString("100.00"),
	}
	f.pet = &domain.Pet{
		ID:      uuid.New(),
		OwnerID: f.seller.ID,
		Name:    "Quill",
		Breed:   domain.BreedHedgehog,
	}
	f.lot = &domain.Lot{
		ID:        uuid.New(),
		PetID:     f.pet.ID,
		AuthorID:  f.seller.ID,
		Price:     decimal.RequireFromString("25.00"),
		Status:    domain.LotStatusOpen,
		CreatedAt: now,
	}
	f.bid = &domain.Bid{
		ID:        uuid.New(),
		LotID:     f.lot.ID,
		AuthorID:  f.buyer.ID,
		Price:     decimal.RequireFromString("30.00"),
		CreatedAt: now,
	}
	return f
}

func asAppError(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr
}

func TestSettlementService_AcceptBid_Success(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &mockTx{}

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.lotRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.lot.ID).Return(f.lot, nil)

	// Buyer's UUID sorts before the seller's, so the buyer row must be
	// locked first.
	gomock.InOrder(
		f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.buyer.ID).Return(f.buyer, nil),
		f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.seller.ID).Return(f.seller, nil),
	)

	f.petRepo.EXPECT().UpdateOwner(ctx, tx, f.pet.ID, f.buyer.ID).Return(nil)
	f.accountRepo.EXPECT().
		UpdateBalance(ctx, tx, f.seller.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, _ uuid.UUID, balance decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("130.00")), "seller credited: got %s", balance)
			return nil
		})
	f.accountRepo.EXPECT().
		UpdateBalance(ctx, tx, f.buyer.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, _ uuid.UUID, balance decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("70.00")), "buyer debited: got %s", balance)
			return nil
		})
	f.lotRepo.EXPECT().Close(ctx, tx, f.lot.ID).Return(nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestSettlementService_AcceptBid_BidNotFound(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(nil, nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "NOT_FOUND", asAppError(t, err).Code)
}

func TestSettlementService_AcceptBid_NotLotAuthor(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.buyer.ID)

	assert.Equal(t, "CAN_ONLY_ACCEPT_BID_FOR_OWN_LOT", asAppError(t, err).Code)
}

func TestSettlementService_AcceptBid_LotAlreadyClosed(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	f.lot.Status = domain.LotStatusClosed

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "LOT_ALREADY_CLOSED", asAppError(t, err).Code)
}

// A concurrent settlement can close the lot between the unlocked read
// and the row lock. The re-check under the lock must stop the second
// accept with no mutation.
func TestSettlementService_AcceptBid_ClosedUnderLock(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &mockTx{}

	closedLot := *f.lot
	closedLot.Status = domain.LotStatusClosed

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.lotRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.lot.ID).Return(&closedLot, nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "LOT_ALREADY_CLOSED", asAppError(t, err).Code)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestSettlementService_AcceptBid_InsufficientBalance(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &mockTx{}

	// Stored balance below the accepted bid's price.
	f.buyer.Balance = decimal.RequireFromString("29.99")

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.lotRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.lot.ID).Return(f.lot, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.buyer.ID).Return(f.buyer, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.seller.ID).Return(f.seller, nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "INSUFFICIENT_BALANCE", asAppError(t, err).Code)
	assert.True(t, tx.rolledBack)
}

// A failure after some mutations have been issued must roll the whole
// transaction back; no partial settlement survives.
func TestSettlementService_AcceptBid_RollbackOnMidSequenceFailure(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &mockTx{}

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.lotRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.lot.ID).Return(f.lot, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.buyer.ID).Return(f.buyer, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.seller.ID).Return(f.seller, nil)
	f.petRepo.EXPECT().UpdateOwner(ctx, tx, f.pet.ID, f.buyer.ID).Return(nil)
	f.accountRepo.EXPECT().
		UpdateBalance(ctx, tx, f.seller.ID, gomock.Any()).
		Return(errors.New("connection reset"))

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "SYS_001", asAppError(t, err).Code)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestSettlementService_AcceptBid_CommitFailure(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	tx := &mockTx{commitErr: errors.New("deadlock detected")}

	f.bidRepo.EXPECT().GetByID(ctx, f.bid.ID).Return(f.bid, nil)
	f.lotRepo.EXPECT().GetByID(ctx, f.lot.ID).Return(f.lot, nil)
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.lotRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.lot.ID).Return(f.lot, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.buyer.ID).Return(f.buyer, nil)
	f.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, f.seller.ID).Return(f.seller, nil)
	f.petRepo.EXPECT().UpdateOwner(ctx, tx, f.pet.ID, f.buyer.ID).Return(nil)
	f.accountRepo.EXPECT().UpdateBalance(ctx, tx, f.seller.ID, gomock.Any()).Return(nil)
	f.accountRepo.EXPECT().UpdateBalance(ctx, tx, f.buyer.ID, gomock.Any()).Return(nil)
	f.lotRepo.EXPECT().Close(ctx, tx, f.lot.ID).Return(nil)

	err := f.svc.AcceptBid(ctx, f.bid.ID, f.seller.ID)

	assert.Equal(t, "SYS_001", asAppError(t, err).Code)
	assert.True(t, tx.rolledBack)
}
