package postgres

import (
	"context"
	"errors"
	"fmt"

	"pet-auction-house/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PetRepo implements ports.PetRepository.
type PetRepo struct {
	pool Pool
}

// NewPetRepo creates a new PetRepo.
func NewPetRepo(pool Pool) *PetRepo {
	return &PetRepo{pool: pool}
}

// Create inserts a new pet into the database.
func (r *PetRepo) Create(ctx context.Context, p *domain.Pet) error {
	query := `INSERT INTO pets (id, owner_id, name, breed, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, p.ID, p.OwnerID, p.Name, p.Breed, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

// GetByID fetches a pet by its UUID.
func (r *PetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	query := `SELECT id, owner_id, name, breed, created_at FROM pets WHERE id = $1`

	p := &domain.Pet{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Breed, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pet by id: %w", err)
	}
	return p, nil
}

// ListByOwner fetches all pets owned by an account, oldest first.
func (r *PetRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Pet, error) {
	query := `SELECT id, owner_id, name, breed, created_at
		FROM pets WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets by owner: %w", err)
	}
	defer rows.Close()

	var pets []domain.Pet
	for rows.Next() {
		var p domain.Pet
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Breed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pets: %w", err)
	}
	return pets, nil
}

// UpdateOwner reassigns a pet to a new owner within a transaction.
func (r *PetRepo) UpdateOwner(ctx context.Context, tx pgx.Tx, petID, ownerID uuid.UUID) error {
	query := `UPDATE pets SET owner_id = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, ownerID, petID)
	if err != nil {
		return fmt.Errorf("update pet owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pet not found: %s", petID)
	}
	return nil
}
