package postgres

import (
	"context"
	"errors"
	"fmt"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LotRepo implements ports.LotRepository.
type LotRepo struct {
	pool Pool
}

// NewLotRepo creates a new LotRepo.
func NewLotRepo(pool Pool) *LotRepo {
	return &LotRepo{pool: pool}
}

// Create inserts a new lot into the database.
func (r *LotRepo) Create(ctx context.Context, l *domain.Lot) error {
	query := `INSERT INTO lots (id, pet_id, author_id, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, l.ID, l.PetID, l.AuthorID, l.Price, l.Status, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetByID fetches a lot by its UUID (without locking).
func (r *LotRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	query := `SELECT id, pet_id, author_id, price, status, created_at FROM lots WHERE id = $1`

	l := &domain.Lot{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.PetID, &l.AuthorID, &l.Price, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot by id: %w", err)
	}
	return l, nil
}

// GetByIDForUpdate fetches a lot by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *LotRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Lot, error) {
	query := `SELECT id, pet_id, author_id, price, status, created_at FROM lots WHERE id = $1 FOR UPDATE`

	l := &domain.Lot{}
	err := tx.QueryRow(ctx, query, id).Scan(&l.ID, &l.PetID, &l.AuthorID, &l.Price, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot for update: %w", err)
	}
	return l, nil
}

// OpenLotExists reports whether an open lot exists for the (pet, author) pair.
func (r *LotRepo) OpenLotExists(ctx context.Context, petID, authorID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM lots WHERE pet_id = $1 AND author_id = $2 AND status = 'OPEN')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, petID, authorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check open lot: %w", err)
	}
	return exists, nil
}

// ListOpen fetches all open lots joined with their pet and author,
// oldest first.
func (r *LotRepo) ListOpen(ctx context.Context) ([]ports.LotSummary, error) {
	query := `SELECT l.id, p.id, p.owner_id, p.name, p.breed, p.created_at, l.price, a.username
		FROM lots l
		JOIN pets p ON p.id = l.pet_id
		JOIN accounts a ON a.id = l.author_id
		WHERE l.status = 'OPEN'
		ORDER BY l.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open lots: %w", err)
	}
	defer rows.Close()

	var lots []ports.LotSummary
	for rows.Next() {
		var s ports.LotSummary
		if err := rows.Scan(
			&s.ID,
			&s.Pet.ID, &s.Pet.OwnerID, &s.Pet.Name, &s.Pet.Breed, &s.Pet.CreatedAt,
			&s.Price, &s.Author,
		); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lots: %w", err)
	}
	return lots, nil
}

// Close transitions a lot to CLOSED within a transaction.
func (r *LotRepo) Close(ctx context.Context, tx pgx.Tx, lotID uuid.UUID) error {
	query := `UPDATE lots SET status = 'CLOSED' WHERE id = $1 AND status = 'OPEN'`

	tag, err := tx.Exec(ctx, query, lotID)
	if err != nil {
		return fmt.Errorf("close lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lot not open: %s", lotID)
	}
	return nil
}
