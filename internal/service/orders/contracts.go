//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"github.com/google/uuid"
)

// DeliveryPort is the subset of the delivery service driven by order events.
type DeliveryPort interface {
	CancelByOrder(ctx context.Context, orderID uuid.UUID) error
}
