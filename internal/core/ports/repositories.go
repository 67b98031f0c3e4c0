package ports

import (
	"context"

	"pet-auction-house/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx are used inside the settlement transaction
// for pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error
	// SumOpenBids returns the total price of the account's bids placed
	// on lots that are still open. Zero when the account has none.
	SumOpenBids(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// PetRepository defines persistence operations for pets.
type PetRepository interface {
	Create(ctx context.Context, pet *domain.Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Pet, error)
	// UpdateOwner reassigns ownership unconditionally; authorization
	// lives with the caller. Settlement-transaction scoped.
	UpdateOwner(ctx context.Context, tx pgx.Tx, petID, ownerID uuid.UUID) error
}

// LotRepository defines persistence operations for auction lots.
type LotRepository interface {
	Create(ctx context.Context, lot *domain.Lot) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Lot, error)
	// OpenLotExists reports whether an open lot already exists for the
	// (pet, author) pair.
	OpenLotExists(ctx context.Context, petID, authorID uuid.UUID) (bool, error)
	ListOpen(ctx context.Context) ([]LotSummary, error)
	// Close transitions the lot to CLOSED. Must run inside a
	// transaction holding the lot row lock.
	Close(ctx context.Context, tx pgx.Tx, lotID uuid.UUID) error
}

// BidRepository defines persistence operations for bids.
type BidRepository interface {
	Create(ctx context.Context, bid *domain.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error)
	// ExistsForLot reports whether the author already holds a bid on the lot.
	ExistsForLot(ctx context.Context, lotID, authorID uuid.UUID) (bool, error)
	// ListActiveByLot returns the lot's bids while the lot is open.
	ListActiveByLot(ctx context.Context, lotID uuid.UUID) ([]BidSummary, error)
	// ListActive returns all bids whose lot is still open.
	ListActive(ctx context.Context) ([]BidDetail, error)
	Delete(ctx context.Context, bidID uuid.UUID) error
}

// LotSummary is the display projection of an open lot: the lot joined
// with its pet and the author's username.
type LotSummary struct {
	ID     uuid.UUID       `json:"id"`
	Pet    domain.Pet      `json:"pet"`
	Price  decimal.Decimal `json:"price"`
	Author string          `json:"author"`
}

// BidSummary is the short display projection of a bid.
type BidSummary struct {
	ID     uuid.UUID       `json:"id"`
	Price  decimal.Decimal `json:"price"`
	Author string          `json:"author"`
}

// BidDetail is the long display projection of a bid including its lot.
type BidDetail struct {
	ID     uuid.UUID       `json:"id"`
	Price  decimal.Decimal `json:"price"`
	Author string          `json:"author"`
	Lot    LotSummary      `json:"lot"`
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
