package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an offer against an open lot. A bidder holds at most one bid
// per lot; once the lot closes the bid becomes inert (kept as a
// historical record, no further mutation).
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	LotID     uuid.UUID       `json:"lot_id"`
	AuthorID  uuid.UUID       `json:"author_id"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}
