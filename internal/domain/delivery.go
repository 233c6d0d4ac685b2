package domain

import (
	"time"

	"github.com/google/uuid"
)

type (
	// DeliveryStatus is the lifecycle state of a Delivery.
	DeliveryStatus string
	// RequestStatus is the lifecycle state of a DeliveryRequest.
	RequestStatus string
	// OrderStatus is the fulfilment status mirrored onto an order.
	OrderStatus string
)

// Delivery statuses.
const (
	DeliveryUnassigned DeliveryStatus = "UNASSIGNED"
	DeliveryAssigned   DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp   DeliveryStatus = "PICKED_UP"
	DeliveryInTransit  DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
	DeliveryFailed     DeliveryStatus = "FAILED"
)

// Request statuses.
const (
	RequestPending   RequestStatus = "PENDING"
	RequestAccepted  RequestStatus = "ACCEPTED"
	RequestDeclined  RequestStatus = "DECLINED"
	RequestCancelled RequestStatus = "CANCELLED"
	RequestExpired   RequestStatus = "EXPIRED"
)

// Order statuses written by dispatch.
const (
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled || s == DeliveryFailed
}

// Active reports whether a courier is on the job and may stream positions.
func (s DeliveryStatus) Active() bool {
	return s == DeliveryAssigned || s == DeliveryPickedUp || s == DeliveryInTransit
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryUnassigned, DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit,
		DeliveryDelivered, DeliveryCancelled, DeliveryFailed:
		return true
	}
	return false
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestDeclined, RequestCancelled, RequestExpired:
		return true
	}
	return false
}

var transitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryAssigned:  {DeliveryUnassigned},
	DeliveryPickedUp:  {DeliveryAssigned},
	DeliveryInTransit: {DeliveryPickedUp},
	DeliveryDelivered: {DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit},
	DeliveryCancelled: {DeliveryUnassigned, DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit},
	DeliveryFailed:    {DeliveryUnassigned, DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit},
}

// AllowedFrom lists the states a delivery may move to target from.
func AllowedFrom(target DeliveryStatus) []DeliveryStatus {
	return transitions[target]
}

// CanTransition reports whether from -> to is a legal delivery transition.
func CanTransition(from, to DeliveryStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Address is a free-text address with optional coordinates.
type Address struct {
	Text string   `json:"text,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// Delivery is the fulfilment job tied 1:1 to an order.
type Delivery struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	StoreID     uuid.UUID
	BuyerID     uuid.UUID
	CourierID   *uuid.UUID
	Status      DeliveryStatus
	Pickup      Address
	Dropoff     Address
	AssignedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// StoreOwnerID is joined from the store and never persisted on the delivery.
	StoreOwnerID uuid.UUID
}

// IsCourier reports whether userID is the assigned courier.
func (d Delivery) IsCourier(userID uuid.UUID) bool {
	return d.CourierID != nil && *d.CourierID == userID
}

// IsParticipant reports whether userID is the buyer, assigned courier or store owner.
func (d Delivery) IsParticipant(userID uuid.UUID) bool {
	return d.BuyerID == userID || d.StoreOwnerID == userID || d.IsCourier(userID)
}

// DeliveryRequest is an offer of a delivery to one courier.
type DeliveryRequest struct {
	ID          uuid.UUID
	DeliveryID  uuid.UUID
	StoreID     uuid.UUID
	CourierID   uuid.UUID
	Message     string
	Status      RequestStatus
	ExpiresAt   time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
}

// Expired reports whether the offer can no longer be accepted at now.
func (r DeliveryRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// DeliveryLocation is an append-only sampled trajectory point.
type DeliveryLocation struct {
	ID         uuid.UUID
	DeliveryID uuid.UUID
	CourierID  uuid.UUID
	Lat        float64
	Lng        float64
	Speed      *float64
	Heading    *float64
	Accuracy   *float64
	RecordedAt time.Time
}

// LocationReport is one position report pushed by a courier client. TS is
// the client clock; see UnmarshalJSON for the accepted encodings.
type LocationReport struct {
	DeliveryID uuid.UUID  `json:"deliveryId"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Speed      *float64   `json:"speed,omitempty"`
	Heading    *float64   `json:"heading,omitempty"`
	Accuracy   *float64   `json:"accuracy,omitempty"`
	TS         *time.Time `json:"ts,omitempty"`
}

// Tracking is the buyer-facing view of a delivery.
type Tracking struct {
	Delivery Delivery
	Courier  *CourierProfile
	ThreadID *uuid.UUID
}
