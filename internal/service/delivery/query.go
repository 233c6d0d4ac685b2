package delivery

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// GetDelivery returns a delivery to one of its participants.
func (s *Service) GetDelivery(ctx context.Context, deliveryID, userID uuid.UUID) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errDeliveryNotFound
	}
	if !d.IsParticipant(userID) {
		return nil, errDeliveryForbidden
	}
	return d, nil
}

// ListRequestsForCourier lists offers addressed to courierID. status may be empty or "ALL".
func (s *Service) ListRequestsForCourier(ctx context.Context, courierID uuid.UUID, status string) ([]domain.DeliveryRequest, error) {
	st, err := parseRequestStatus(status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListRequestsByCourier(ctx, courierID, st)
}

// TrackingByOrder returns the delivery of an order with the courier's public
// profile and the buyer/courier chat channel, if any.
func (s *Service) TrackingByOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Tracking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errDeliveryNotFound
	}
	if !d.IsParticipant(userID) {
		return nil, errDeliveryForbidden
	}

	out := &domain.Tracking{Delivery: *d}
	if d.CourierID == nil {
		return out, nil
	}

	out.Courier, err = s.catalog.GetProfile(ctx, *d.CourierID)
	if err != nil {
		return nil, err
	}
	out.ThreadID, err = s.threads.FindDirect(ctx, d.BuyerID, *d.CourierID, d.StoreID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireStale marks every overdue PENDING request EXPIRED.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("stale delivery requests expired", logx.String("event", "requests_expired"), logx.Int64("count", n))
	}
	return n, nil
}
