package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStatus represents the lifecycle state of an auction lot.
type LotStatus string

const (
	LotStatusOpen   LotStatus = "OPEN"
	LotStatusClosed LotStatus = "CLOSED"
)

// Lot is an auction listing: one pet offered by its owner at an asking
// price. A lot opens at creation and closes exactly once; CLOSED is
// terminal.
type Lot struct {
	ID        uuid.UUID       `json:"id"`
	PetID     uuid.UUID       `json:"pet_id"`
	AuthorID  uuid.UUID       `json:"author_id"`
	Price     decimal.Decimal `json:"price"`
	Status    LotStatus       `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsClosed returns true if the lot has been closed.
func (l *Lot) IsClosed() bool {
	return l.Status == LotStatusClosed
}
