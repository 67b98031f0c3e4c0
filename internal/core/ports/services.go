package ports

import (
	"context"
	"time"

	"pet-auction-house/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Username  string
}

// --- Service Ports (Business Logic) ---

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds validated input for account registration.
type RegisterRequest struct {
	Username string
	Password string
}

// LedgerService owns balance queries. Available balance is derived:
// stored balance minus the sum of the account's bids on open lots.
type LedgerService interface {
	AvailableBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
}

// PetService defines pet registry operations.
type PetService interface {
	Create(ctx context.Context, req CreatePetRequest) (*domain.Pet, error)
	ListOwn(ctx context.Context, ownerID uuid.UUID) ([]domain.Pet, error)
}

// CreatePetRequest holds validated input for pet creation.
type CreatePetRequest struct {
	OwnerID uuid.UUID
	Name    string
	Breed   domain.Breed
}

// LotService defines the lot lifecycle.
type LotService interface {
	Create(ctx context.Context, req CreateLotRequest) (*LotSummary, error)
	Close(ctx context.Context, lotID, requesterID uuid.UUID) error
	ListOpen(ctx context.Context) ([]LotSummary, error)
	ListBids(ctx context.Context, lotID uuid.UUID) ([]BidSummary, error)
}

// CreateLotRequest holds validated input for lot creation.
type CreateLotRequest struct {
	AuthorID uuid.UUID
	PetID    uuid.UUID
	Price    decimal.Decimal
}

// BidService defines the bid book.
type BidService interface {
	Place(ctx context.Context, req PlaceBidRequest) (*BidDetail, error)
	Withdraw(ctx context.Context, bidID, requesterID uuid.UUID) error
	ListActive(ctx context.Context) ([]BidDetail, error)
}

// PlaceBidRequest holds validated input for bid placement.
type PlaceBidRequest struct {
	BidderID uuid.UUID
	LotID    uuid.UUID
	Price    decimal.Decimal
}

// SettlementService orchestrates the atomic transition on bid
// acceptance: ownership transfer, balance transfer, lot closure.
type SettlementService interface {
	AcceptBid(ctx context.Context, bidID, requesterID uuid.UUID) error
}
