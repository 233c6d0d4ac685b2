package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/deliverytx"
)

// CreateDelivery opens an UNASSIGNED delivery for an order sold entirely by the seller's store.
func (s *Service) CreateDelivery(ctx context.Context, in CreateDeliveryInput) (*domain.Delivery, error) {
	if err := validateCreateDelivery(&in); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	owner, ok, err := s.catalog.StoreOwner(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound(CodeStoreNotFound, "store does not exist")
	}
	if owner != in.SellerID {
		return nil, apperr.Forbidden(CodeStoreForbidden, "not the owner of this store")
	}

	order, err := s.catalog.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperr.NotFound(CodeOrderNotFound, "order does not exist")
	}
	if !order.SoldBy(in.StoreID) {
		return nil, apperr.Invalid(CodeOrderStoreMismatch, "order contains items from another store")
	}

	existing, err := s.repo.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(CodeDeliveryExists, "order already has a delivery")
	}

	d := &domain.Delivery{
		ID:           uuid.New(),
		OrderID:      in.OrderID,
		StoreID:      in.StoreID,
		BuyerID:      order.BuyerID,
		Status:       domain.DeliveryUnassigned,
		Pickup:       in.Pickup,
		Dropoff:      in.Dropoff,
		Notes:        in.Notes,
		CreatedAt:    s.now(),
		StoreOwnerID: owner,
	}
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		return tx.InsertDelivery(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(domain.DeliveryUnassigned)
	s.logger.Info("delivery created",
		logx.String("event", "delivery_created"),
		logx.String("delivery_id", d.ID.String()),
		logx.String("order_id", d.OrderID.String()),
		logx.String("store_id", d.StoreID.String()),
	)
	return d, nil
}

// CreateRequest offers a delivery to one AVAILABLE courier.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.DeliveryRequest, error) {
	if err := validateCreateRequest(&in); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ttl := s.requestTTL
	if in.ExpiresInMinutes > 0 {
		ttl = time.Duration(in.ExpiresInMinutes) * time.Minute
	}

	var (
		req      *domain.DeliveryRequest
		delivery *domain.Delivery
	)
	err := s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := tx.LockDelivery(ctx, in.DeliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return errDeliveryNotFound
		}
		if d.StoreOwnerID != in.SellerID {
			return errDeliveryForbidden
		}
		if d.CourierID != nil {
			return apperr.Conflict(CodeCourierAssigned, "delivery already has a courier")
		}
		if d.Status.Terminal() {
			return errDeliveryClosed
		}

		profile, err := tx.GetCourierProfile(ctx, in.CourierID)
		if err != nil {
			return err
		}
		if profile == nil {
			return apperr.NotFound(CodeCourierNotFound, "courier does not exist")
		}
		if profile.Status != domain.CourierAvailable {
			return errCourierUnavailable
		}

		pending, err := tx.HasPendingRequest(ctx, d.ID, in.CourierID)
		if err != nil {
			return err
		}
		if pending {
			return apperr.Conflict(CodeRequestExists, "courier already has a pending offer for this delivery")
		}

		now := s.now()
		req = &domain.DeliveryRequest{
			ID:         uuid.New(),
			DeliveryID: d.ID,
			StoreID:    d.StoreID,
			CourierID:  in.CourierID,
			Message:    in.Message,
			Status:     domain.RequestPending,
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
		}
		delivery = d
		return tx.InsertRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery offered",
		logx.String("event", "request_created"),
		logx.String("delivery_id", req.DeliveryID.String()),
		logx.String("request_id", req.ID.String()),
		logx.String("courier_id", req.CourierID.String()),
		logx.Time("expires_at", req.ExpiresAt),
	)

	sctx, scancel := s.afterCommit(ctx)
	defer scancel()

	s.openThread(sctx, in.SellerID, in.CourierID, delivery.StoreID)
	s.notify(sctx, domain.Notification{
		UserID: in.CourierID,
		Title:  "New delivery request",
		Body:   "You have a new delivery request",
		Data: map[string]any{
			"deliveryId": req.DeliveryID,
			"requestId":  req.ID,
			"storeId":    req.StoreID,
			"orderId":    delivery.OrderID,
		},
	})
	s.broadcaster.EmitToUser(in.CourierID, domain.EventDeliveryRequest, domain.RequestEvent{
		DeliveryID: req.DeliveryID,
		RequestID:  req.ID,
		StoreID:    req.StoreID,
		Message:    req.Message,
		ExpiresAt:  req.ExpiresAt,
	})
	return req, nil
}
