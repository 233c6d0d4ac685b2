// Package deliverytx declares the storage operations that must run inside one
// dispatch transaction.
package deliverytx

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// OrderSync mirrors dispatch progress onto the upstream order row.
type OrderSync interface {
	SetOrderDeliveryStatus(ctx context.Context, orderID uuid.UUID, status domain.DeliveryStatus) error
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
}

// Repository is the transactional view of dispatch storage.
//
// Methods returning (bool, error) are conditional updates: false means the
// row was not in the expected state and nothing was written.
type Repository interface {
	OrderSync

	LockDelivery(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
	InsertDelivery(ctx context.Context, d *domain.Delivery) error
	AssignCourier(ctx context.Context, deliveryID, courierID uuid.UUID, at time.Time) (bool, error)
	TransitionDelivery(ctx context.Context, deliveryID uuid.UUID, to domain.DeliveryStatus, at time.Time) (bool, error)

	GetCourierProfile(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error)
	SetCourierStatus(ctx context.Context, userID uuid.UUID, status domain.CourierStatus) error
	SetCourierStatusFrom(ctx context.Context, userID uuid.UUID, to domain.CourierStatus, from []domain.CourierStatus) (bool, error)

	HasPendingRequest(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error)
	InsertRequest(ctx context.Context, r *domain.DeliveryRequest) error
	AcceptRequest(ctx context.Context, requestID, courierID uuid.UUID, at time.Time) (bool, error)
	CancelPendingRequests(ctx context.Context, deliveryID uuid.UUID, at time.Time) (int64, error)
}

// Runner is a transaction runner.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
