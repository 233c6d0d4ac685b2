//go:generate mockgen -source=contracts.go -destination=delivery_mocks_test.go -package=delivery

package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/deliverytx"
)

// Repository is dispatch storage. Reads outside a transaction return nil for absent rows.
type Repository interface {
	deliverytx.Runner

	Get(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Delivery, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.DeliveryRequest, error)
	ListRequestsByCourier(ctx context.Context, courierID uuid.UUID, status *domain.RequestStatus) ([]domain.DeliveryRequest, error)
	DeclineRequest(ctx context.Context, id, courierID uuid.UUID, at time.Time) (bool, error)
	ExpireRequest(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// Catalog reads stores, orders and couriers owned by other subsystems.
type Catalog interface {
	StoreOwner(ctx context.Context, storeID uuid.UUID) (uuid.UUID, bool, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error)
}

// ThreadOpener opens direct chat channels. OpenDirect is idempotent.
type ThreadOpener interface {
	OpenDirect(ctx context.Context, buyerID, sellerID, storeID uuid.UUID) (uuid.UUID, error)
	FindDirect(ctx context.Context, buyerID, sellerID, storeID uuid.UUID) (*uuid.UUID, error)
}

// Notifier delivers a user notification. Failures are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Broadcaster pushes real-time events to connected clients.
type Broadcaster interface {
	EmitToUser(userID uuid.UUID, event string, payload any)
	EmitToDelivery(deliveryID uuid.UUID, event string, payload any)
}

// Metrics records dispatch outcomes.
type Metrics interface {
	ObserveTransition(to domain.DeliveryStatus)
	ObserveAcceptConflict(code string)
}
