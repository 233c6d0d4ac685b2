//go:generate mockgen -source=contracts.go -destination=tracking_mocks_test.go -package=tracking

package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// Deliveries reads deliveries with their store owner. Absent rows are nil.
type Deliveries interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
}

// Positions stores a courier's latest position.
type Positions interface {
	UpdateLocation(ctx context.Context, courierID uuid.UUID, p domain.Point, at time.Time) error
}

// History stores the sampled trajectory.
type History interface {
	Insert(ctx context.Context, l *domain.DeliveryLocation) error
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]domain.DeliveryLocation, error)
}

// Broadcaster fans events out to a delivery room.
type Broadcaster interface {
	EmitToDelivery(deliveryID uuid.UUID, event string, payload any)
}

// Metrics counts report outcomes.
type Metrics interface {
	ObserveLocationReport(outcome string)
}
