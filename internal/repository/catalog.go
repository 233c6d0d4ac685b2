package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
)

// CatalogRepo reads stores, orders and accounts owned by other subsystems.
type CatalogRepo struct{ db *pgxpool.Pool }

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *pgxpool.Pool) *CatalogRepo { return &CatalogRepo{db: db} }

// StoreOwner returns the owner of storeID; ok is false if the store does not exist.
func (r *CatalogRepo) StoreOwner(ctx context.Context, storeID uuid.UUID) (owner uuid.UUID, ok bool, err error) {
	err = r.db.QueryRow(ctx, `SELECT owner_id FROM stores WHERE id = $1`, storeID).Scan(&owner)
	if err != nil {
		if IsNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("get store %s: %w", storeID, err)
	}
	return owner, true, nil
}

// GetOrder returns the order with the store of every line item, or nil if absent.
func (r *CatalogRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.buyer_id, o.total, o.currency,
		       COALESCE(array_agg(oi.store_id) FILTER (WHERE oi.store_id IS NOT NULL), '{}')
		FROM orders o LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.id = $1
		GROUP BY o.id`, orderID).Scan(&o.ID, &o.BuyerID, &o.Total, &o.Currency, &o.StoreIDs)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &o, nil
}

// GetAccount returns the account, or nil if absent.
func (r *CatalogRepo) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var (
		a     domain.Account
		roles []string
	)
	err := r.db.QueryRow(ctx, `SELECT id, roles, is_banned FROM users WHERE id = $1`, id).Scan(&a.ID, &roles, &a.IsBanned)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	a.Roles = make([]domain.Role, len(roles))
	for i, r := range roles {
		a.Roles[i] = domain.Role(r)
	}
	return &a, nil
}
