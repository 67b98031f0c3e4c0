package service

import (
	"context"
	"fmt"
	"time"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"

	"github.com/google/uuid"
)

// PetServiceImpl implements ports.PetService.
type PetServiceImpl struct {
	petRepo ports.PetRepository
}

// NewPetService creates a new PetServiceImpl.
func NewPetService(petRepo ports.PetRepository) *PetServiceImpl {
	return &PetServiceImpl{petRepo: petRepo}
}

// Create registers a pet owned by the caller.
func (s *PetServiceImpl) Create(ctx context.Context, req ports.CreatePetRequest) (*domain.Pet, error) {
	if !req.Breed.IsValid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown breed %q", req.Breed))
	}

	pet := &domain.Pet{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Breed:     req.Breed,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.petRepo.Create(ctx, pet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create pet: %w", err))
	}

	return pet, nil
}

// ListOwn returns the caller's pets.
func (s *PetServiceImpl) ListOwn(ctx context.Context, ownerID uuid.UUID) ([]domain.Pet, error) {
	pets, err := s.petRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pets: %w", err))
	}
	return pets, nil
}
