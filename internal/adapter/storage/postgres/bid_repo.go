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

// BidRepo implements ports.BidRepository.
type BidRepo struct {
	pool Pool
}

// NewBidRepo creates a new BidRepo.
func NewBidRepo(pool Pool) *BidRepo {
	return &BidRepo{pool: pool}
}

// Create inserts a new bid into the database.
func (r *BidRepo) Create(ctx context.Context, b *domain.Bid) error {
	query := `INSERT INTO bids (id, lot_id, author_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, b.ID, b.LotID, b.AuthorID, b.Price, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

// GetByID fetches a bid by its UUID.
func (r *BidRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	query := `SELECT id, lot_id, author_id, price, created_at FROM bids WHERE id = $1`

	b := &domain.Bid{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.LotID, &b.AuthorID, &b.Price, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bid by id: %w", err)
	}
	return b, nil
}

// ExistsForLot reports whether the author already holds a bid on the lot.
func (r *BidRepo) ExistsForLot(ctx context.Context, lotID, authorID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bids WHERE lot_id = $1 AND author_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, lotID, authorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check bid exists: %w", err)
	}
	return exists, nil
}

// ListActiveByLot fetches a lot's bids while the lot is open, oldest first.
func (r *BidRepo) ListActiveByLot(ctx context.Context, lotID uuid.UUID) ([]ports.BidSummary, error) {
	query := `SELECT b.id, b.price, a.username
		FROM bids b
		JOIN lots l ON l.id = b.lot_id
		JOIN accounts a ON a.id = b.author_id
		WHERE b.lot_id = $1 AND l.status = 'OPEN'
		ORDER BY b.created_at`

	rows, err := r.pool.Query(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("list lot bids: %w", err)
	}
	defer rows.Close()

	var bids []ports.BidSummary
	for rows.Next() {
		var s ports.BidSummary
		if err := rows.Scan(&s.ID, &s.Price, &s.Author); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return bids, nil
}

// ListActive fetches every bid whose lot is still open, joined with
// the lot's pet and both usernames.
func (r *BidRepo) ListActive(ctx context.Context) ([]ports.BidDetail, error) {
	query := `SELECT b.id, b.price, ba.username,
			l.id, p.id, p.owner_id, p.name, p.breed, p.created_at, l.price, la.username
		FROM bids b
		JOIN lots l ON l.id = b.lot_id
		JOIN pets p ON p.id = l.pet_id
		JOIN accounts ba ON ba.id = b.author_id
		JOIN accounts la ON la.id = l.author_id
		WHERE l.status = 'OPEN'
		ORDER BY b.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active bids: %w", err)
	}
	defer rows.Close()

	var bids []ports.BidDetail
	for rows.Next() {
		var d ports.BidDetail
		if err := rows.Scan(
			&d.ID, &d.Price, &d.Author,
			&d.Lot.ID,
			&d.Lot.Pet.ID, &d.Lot.Pet.OwnerID, &d.Lot.Pet.Name, &d.Lot.Pet.Breed, &d.Lot.Pet.CreatedAt,
			&d.Lot.Price, &d.Lot.Author,
		); err != nil {
			return nil, fmt.Errorf("scan bid detail: %w", err)
		}
		bids = append(bids, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid details: %w", err)
	}
	return bids, nil
}

// Delete removes a bid.
func (r *BidRepo) Delete(ctx context.Context, bidID uuid.UUID) error {
	query := `DELETE FROM bids WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, bidID)
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", bidID)
	}
	return nil
}
