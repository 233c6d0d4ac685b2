package handlers

import (
	"service-dispatch/internal/domain"
)

func deliveryToResponse(d domain.Delivery) deliveryDTO {
	return deliveryDTO{
		ID:          d.ID,
		OrderID:     d.OrderID,
		StoreID:     d.StoreID,
		BuyerID:     d.BuyerID,
		CourierID:   d.CourierID,
		Status:      string(d.Status),
		Pickup:      d.Pickup,
		Dropoff:     d.Dropoff,
		AssignedAt:  d.AssignedAt,
		PickedUpAt:  d.PickedUpAt,
		DeliveredAt: d.DeliveredAt,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func requestToResponse(r domain.DeliveryRequest) deliveryRequestDTO {
	return deliveryRequestDTO{
		ID:          r.ID,
		DeliveryID:  r.DeliveryID,
		StoreID:     r.StoreID,
		CourierID:   r.CourierID,
		Message:     r.Message,
		Status:      string(r.Status),
		ExpiresAt:   r.ExpiresAt,
		RespondedAt: r.RespondedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func requestsToResponse(list []domain.DeliveryRequest) []deliveryRequestDTO {
	out := make([]deliveryRequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, requestToResponse(r))
	}
	return out
}
