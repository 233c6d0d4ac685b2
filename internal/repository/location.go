package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
)

// LocationRepo stores the sampled delivery trajectory.
type LocationRepo struct{ db *pgxpool.Pool }

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *pgxpool.Pool) *LocationRepo { return &LocationRepo{db: db} }

// Insert appends one trajectory point.
func (r *LocationRepo) Insert(ctx context.Context, l *domain.DeliveryLocation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO delivery_locations (id, delivery_id, courier_id, lat, lng, speed, heading, accuracy, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.DeliveryID, l.CourierID, l.Lat, l.Lng, l.Speed, l.Heading, l.Accuracy, l.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert delivery location: %w", err)
	}
	return nil
}

// ListByDelivery returns the trajectory in chronological order.
func (r *LocationRepo) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]domain.DeliveryLocation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, delivery_id, courier_id, lat, lng, speed, heading, accuracy, recorded_at
		FROM delivery_locations
		WHERE delivery_id = $1
		ORDER BY recorded_at, id`, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("list locations of %s: %w", deliveryID, err)
	}
	defer rows.Close()

	out := make([]domain.DeliveryLocation, 0)
	for rows.Next() {
		var l domain.DeliveryLocation
		if err := rows.Scan(&l.ID, &l.DeliveryID, &l.CourierID, &l.Lat, &l.Lng,
			&l.Speed, &l.Heading, &l.Accuracy, &l.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
