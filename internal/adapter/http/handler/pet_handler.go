package handler

import (
	"pet-auction-house/internal/adapter/http/dto"
	"pet-auction-house/internal/adapter/http/middleware"
	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"
	"pet-auction-house/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PetHandler handles pet registry endpoints.
type PetHandler struct {
	petSvc ports.PetService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(petSvc ports.PetService) *PetHandler {
	return &PetHandler{petSvc: petSvc}
}

// Create handles POST /api/v1/pets.
func (h *PetHandler) Create(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	pet, err := h.petSvc.Create(c.Request.Context(), ports.CreatePetRequest{
		OwnerID: accountID.(uuid.UUID),
		Name:    req.Name,
		Breed:   domain.Breed(req.Breed),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPetResponse(*pet))
}

// ListOwn handles GET /api/v1/pets.
func (h *PetHandler) ListOwn(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	pets, err := h.petSvc.ListOwn(c.Request.Context(), accountID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PetResponse, 0, len(pets))
	for _, pet := range pets {
		items = append(items, toPetResponse(pet))
	}
	response.OK(c, items)
}

func toPetResponse(pet domain.Pet) dto.PetResponse {
	return dto.PetResponse{
		ID:      pet.ID.String(),
		Name:    pet.Name,
		Breed:   string(pet.Breed),
		OwnerID: pet.OwnerID.String(),
	}
}
