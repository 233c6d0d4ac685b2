package domain

import (
	"time"

	"github.com/google/uuid"
)

// Real-time event names.
const (
	EventDeliveryRequest  = "delivery:request"
	EventDeliveryAssigned = "delivery:assigned"
	EventDeliveryStatus   = "delivery:status"
	EventDeliveryJoin     = "delivery:join"
	EventCourierLocation  = "courier:location"
)

// RequestEvent is pushed to the courier a delivery is offered to.
type RequestEvent struct {
	DeliveryID uuid.UUID `json:"deliveryId"`
	RequestID  uuid.UUID `json:"requestId"`
	StoreID    uuid.UUID `json:"storeId"`
	Message    string    `json:"message,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// AssignedEvent is pushed to a delivery room once a courier is assigned.
type AssignedEvent struct {
	DeliveryID uuid.UUID `json:"deliveryId"`
	CourierID  uuid.UUID `json:"courierId"`
}

// StatusEvent is pushed to a delivery room on every status change after assignment.
type StatusEvent struct {
	DeliveryID uuid.UUID      `json:"deliveryId"`
	Status     DeliveryStatus `json:"status"`
	At         time.Time      `json:"at"`
}

// LocationEvent is an accepted position report rebroadcast to a delivery room.
type LocationEvent struct {
	DeliveryID uuid.UUID `json:"deliveryId"`
	CourierID  uuid.UUID `json:"courierId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	TS         time.Time `json:"ts"`
}
