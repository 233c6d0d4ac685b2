package handlers

import (
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

type createDeliveryRequest struct {
	Pickup  domain.Address `json:"pickup"`
	Dropoff domain.Address `json:"dropoff"`
	Notes   string         `json:"notes"`
}

type createOfferRequest struct {
	CourierID        uuid.UUID `json:"courierId"`
	Message          string    `json:"message"`
	ExpiresInMinutes int       `json:"expiresInMinutes"`
}

type deliveryDTO struct {
	ID          uuid.UUID      `json:"id"`
	OrderID     uuid.UUID      `json:"orderId"`
	StoreID     uuid.UUID      `json:"storeId"`
	BuyerID     uuid.UUID      `json:"buyerId"`
	CourierID   *uuid.UUID     `json:"courierId"`
	Status      string         `json:"status"`
	Pickup      domain.Address `json:"pickup"`
	Dropoff     domain.Address `json:"dropoff"`
	AssignedAt  *time.Time     `json:"assignedAt"`
	PickedUpAt  *time.Time     `json:"pickedUpAt"`
	DeliveredAt *time.Time     `json:"deliveredAt"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type deliveryRequestDTO struct {
	ID          uuid.UUID  `json:"id"`
	DeliveryID  uuid.UUID  `json:"deliveryId"`
	StoreID     uuid.UUID  `json:"storeId"`
	CourierID   uuid.UUID  `json:"courierId"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	RespondedAt *time.Time `json:"respondedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type acceptResponse struct {
	Request  deliveryRequestDTO `json:"request"`
	Delivery deliveryDTO        `json:"delivery"`
}

type trackingCourierDTO struct {
	ID             uuid.UUID  `json:"id"`
	DisplayName    string     `json:"displayName"`
	VehicleType    string     `json:"vehicleType"`
	Rating         float64    `json:"rating"`
	Phone          string     `json:"phone"`
	CurrentLat     *float64   `json:"currentLat"`
	CurrentLng     *float64   `json:"currentLng"`
	LastLocationAt *time.Time `json:"lastLocationAt"`
}

type trackingDTO struct {
	Delivery deliveryDTO         `json:"delivery"`
	Courier  *trackingCourierDTO `json:"courier"`
	ThreadID *uuid.UUID          `json:"threadId"`
}

type locationDTO struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}
