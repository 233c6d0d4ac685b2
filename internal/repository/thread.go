package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ThreadRepo opens direct chat channels between two parties of a store.
type ThreadRepo struct{ db *pgxpool.Pool }

// NewThreadRepo creates a new ThreadRepo.
func NewThreadRepo(db *pgxpool.Pool) *ThreadRepo { return &ThreadRepo{db: db} }

// OpenDirect returns the channel between buyer and seller for storeID, creating it if needed.
func (r *ThreadRepo) OpenDirect(ctx context.Context, buyerID, sellerID, storeID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_threads (id, buyer_id, seller_id, store_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (buyer_id, seller_id, store_id) DO UPDATE SET buyer_id = EXCLUDED.buyer_id
		RETURNING id`, uuid.New(), buyerID, sellerID, storeID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("open direct thread: %w", err)
	}
	return id, nil
}

// FindDirect returns the channel id if one exists.
func (r *ThreadRepo) FindDirect(ctx context.Context, buyerID, sellerID, storeID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT id FROM chat_threads
		WHERE buyer_id = $1 AND seller_id = $2 AND store_id = $3`, buyerID, sellerID, storeID).Scan(&id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find direct thread: %w", err)
	}
	return &id, nil
}
