package domain

import (
	"time"

	"github.com/google/uuid"
)

// Breed is the kind of pet that can be traded.
type Breed string

const (
	BreedCat      Breed = "cat"
	BreedHedgehog Breed = "hedgehog"
)

// IsValid returns true if the breed is one of the supported values.
func (b Breed) IsValid() bool {
	return b == BreedCat || b == BreedHedgehog
}

// Pet represents an animal with exclusive ownership. Ownership is
// reassigned only by the settlement engine when a bid is accepted.
type Pet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Breed     Breed     `json:"breed"`
	CreatedAt time.Time `json:"created_at"`
}
