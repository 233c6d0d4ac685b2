package handlers

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/courier"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/matching"
)

type courierUsecase interface {
	Become(ctx context.Context, userID uuid.UUID, in courier.BecomeInput) (*domain.CourierProfile, error)
	Get(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error)
	Update(ctx context.Context, u domain.CourierProfileUpdate) (*domain.CourierProfile, error)
	SetStatus(ctx context.Context, userID uuid.UUID, status string) (*domain.CourierProfile, error)
}

type matcherUsecase interface {
	Nearby(ctx context.Context, q matching.Query) ([]domain.NearbyCourier, error)
}

type deliveryUsecase interface {
	CreateDelivery(ctx context.Context, in delivery.CreateDeliveryInput) (*domain.Delivery, error)
	CreateRequest(ctx context.Context, in delivery.CreateRequestInput) (*domain.DeliveryRequest, error)
	GetDelivery(ctx context.Context, deliveryID, userID uuid.UUID) (*domain.Delivery, error)
	ListRequestsForCourier(ctx context.Context, courierID uuid.UUID, status string) ([]domain.DeliveryRequest, error)
	AcceptRequest(ctx context.Context, requestID, courierID uuid.UUID) (*delivery.AcceptResult, error)
	DeclineRequest(ctx context.Context, requestID, courierID uuid.UUID) (*domain.DeliveryRequest, error)
	Pickup(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error)
	StartTransit(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error)
	Complete(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error)
	Cancel(ctx context.Context, deliveryID, userID uuid.UUID) (*domain.Delivery, error)
	TrackingByOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Tracking, error)
}

type historyUsecase interface {
	History(ctx context.Context, deliveryID, userID uuid.UUID) ([]domain.DeliveryLocation, error)
}

// NewCourierUsecase wires a courier.Service into a courierUsecase.
func NewCourierUsecase(svc *courier.Service) courierUsecase {
	return svc
}

// NewDeliveryUsecase wires a delivery.Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *delivery.Service) deliveryUsecase {
	return svc
}
