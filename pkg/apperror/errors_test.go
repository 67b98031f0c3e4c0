package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("LOT_EXISTS", "Lot for pet already exists", http.StatusBadRequest)
	assert.Equal(t, "[LOT_EXISTS] Lot for pet already exists", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, fmt.Errorf("pg down"))
	assert.Contains(t, wrapped.Error(), "pg down")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := InternalError(cause)
	assert.ErrorIs(t, e, cause)
}

func TestDomainErrors_AreClientErrors(t *testing.T) {
	// Every business-rule violation maps to HTTP 400 with a stable code.
	for _, e := range []*AppError{
		ErrUserNotOwnPet(),
		ErrUserIsNotAuthorForLot(),
		ErrUserIsNotAuthorForBid(),
		ErrCanOnlyAcceptBidForOwnLot(),
		ErrCannotBidInOwnLot(),
		ErrLotExists(),
		ErrLotAlreadyClosed(),
		ErrOnlyOneBidAllowed(),
		ErrInsufficientBalance(),
	} {
		assert.Equal(t, http.StatusBadRequest, e.HTTPStatus, e.Code)
		assert.NotEmpty(t, e.Code)
		assert.NotEmpty(t, e.Message)
	}
}

func TestErrNotFound(t *testing.T) {
	e := ErrNotFound("lot")
	assert.Equal(t, http.StatusNotFound, e.HTTPStatus)
	assert.Equal(t, "lot not found", e.Message)
}
