package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Balance   string `json:"balance"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// AccountResponse is the response for the profile endpoint. Balance is
// the stored balance; available_balance subtracts open bid exposure.
type AccountResponse struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"available_balance"`
}

// CreatePetRequest is the request body for pet registration.
type CreatePetRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Breed string `json:"breed" binding:"required"`
}

// PetResponse is the response body for a pet.
type PetResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Breed   string `json:"breed"`
	OwnerID string `json:"owner_id"`
}

// CreateLotRequest is the request body for opening a lot. Price is a
// decimal string ("45.50") to avoid float rounding on the wire.
type CreateLotRequest struct {
	PetID string `json:"pet_id" binding:"required,uuid"`
	Price string `json:"price" binding:"required"`
}

// LotResponse is the response body for a lot listing.
type LotResponse struct {
	ID     string      `json:"id"`
	Pet    PetResponse `json:"pet"`
	Price  string      `json:"price"`
	Author string      `json:"author"`
}

// PlaceBidRequest is the request body for placing a bid.
type PlaceBidRequest struct {
	LotID string `json:"lot_id" binding:"required,uuid"`
	Price string `json:"price" binding:"required"`
}

// BidResponse is the response body for a bid on a lot.
type BidResponse struct {
	ID     string `json:"id"`
	Price  string `json:"price"`
	Author string `json:"author"`
}

// BidDetailResponse is the response body for a bid with its lot.
type BidDetailResponse struct {
	ID     string      `json:"id"`
	Price  string      `json:"price"`
	Author string      `json:"author"`
	Lot    LotResponse `json:"lot"`
}
