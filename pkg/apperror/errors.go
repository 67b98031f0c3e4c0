package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ownership & Authorization ----

func ErrUserNotOwnPet() *AppError {
	return New("USER_NOT_OWN_PET", "User is not owner of the pet", http.StatusBadRequest)
}

func ErrUserIsNotAuthorForLot() *AppError {
	return New("USER_IS_NOT_AUTHOR_FOR_LOT", "User is not author for the lot", http.StatusBadRequest)
}

func ErrUserIsNotAuthorForBid() *AppError {
	return New("USER_IS_NOT_AUTHOR_FOR_BID", "User is not an author for bid", http.StatusBadRequest)
}

func ErrCanOnlyAcceptBidForOwnLot() *AppError {
	return New("CAN_ONLY_ACCEPT_BID_FOR_OWN_LOT", "User can only accept bid for his lot", http.StatusBadRequest)
}

func ErrCannotBidInOwnLot() *AppError {
	return New("CANNOT_BID_IN_OWN_LOT", "User cannot place bid in his lot", http.StatusBadRequest)
}

// ---- Lot State ----

func ErrLotExists() *AppError {
	return New("LOT_EXISTS", "Lot for pet already exists", http.StatusBadRequest)
}

func ErrLotAlreadyClosed() *AppError {
	return New("LOT_ALREADY_CLOSED", "Lot is already closed", http.StatusBadRequest)
}

// ---- Bidding Business Rules ----

func ErrOnlyOneBidAllowed() *AppError {
	return New("ONLY_ONE_BID_ALLOWED", "User can place only one bid in a lot", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("INSUFFICIENT_BALANCE", "Not enough money to place bid", http.StatusBadRequest)
}

// ---- Generic Resource ----

func ErrNotFound(entity string) *AppError {
	return New("NOT_FOUND", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
