package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBreed_IsValid(t *testing.T) {
	assert.True(t, BreedCat.IsValid())
	assert.True(t, BreedHedgehog.IsValid())
	assert.False(t, Breed("dragon").IsValid())
	assert.False(t, Breed("").IsValid())
}

func TestLot_IsClosed(t *testing.T) {
	lot := &Lot{Status: LotStatusOpen}
	assert.False(t, lot.IsClosed())

	lot.Status = LotStatusClosed
	assert.True(t, lot.IsClosed())
}

func TestDecimalPrices_ExactArithmetic(t *testing.T) {
	// Balances use exact decimal arithmetic; 0.1 + 0.2 must be 0.3.
	a := decimal.RequireFromString("0.1")
	b := decimal.RequireFromString("0.2")
	assert.True(t, a.Add(b).Equal(decimal.RequireFromString("0.3")))
}
