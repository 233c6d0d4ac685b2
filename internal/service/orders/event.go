package orders

import (
	"time"
)

// Event is a single order lifecycle event published by the order service.
type Event struct {
	OrderID   string
	Status    string
	CreatedAt time.Time
}
