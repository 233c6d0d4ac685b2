package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/deliverytx"
)

// AcceptResult is the state after a successful accept.
type AcceptResult struct {
	Request  domain.DeliveryRequest
	Delivery domain.Delivery
}

// AcceptRequest assigns the delivery to the courier the request is addressed to.
//
// Inside one transaction the request moves PENDING -> ACCEPTED, the delivery
// gets its courier, every sibling PENDING request is cancelled, the order
// mirrors ASSIGNED and the courier goes AVAILABLE -> BUSY. Every update is
// conditional, so of two racing accepts the loser gets a Conflict and nothing
// it wrote survives. A courier who is not AVAILABLE (offline, or busy with
// another delivery) cannot accept.
func (s *Service) AcceptRequest(ctx context.Context, requestID, courierID uuid.UUID) (*AcceptResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errRequestNotFound
	}
	if req.CourierID != courierID {
		return nil, errRequestForbidden
	}
	if req.Status != domain.RequestPending {
		return nil, s.acceptConflict(errRequestNotPending)
	}

	now := s.now()
	if req.Expired(now) {
		if _, err := s.repo.ExpireRequest(ctx, req.ID, now); err != nil {
			s.logger.Warn("mark request expired failed", logx.String("request_id", req.ID.String()), logx.Err(err))
		}
		return nil, s.acceptConflict(errRequestExpired)
	}

	var d *domain.Delivery
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err = tx.LockDelivery(ctx, req.DeliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return errDeliveryNotFound
		}

		ok, err := tx.AcceptRequest(ctx, req.ID, courierID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errRequestNotPending
		}

		ok, err = tx.AssignCourier(ctx, d.ID, courierID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errDeliveryTaken
		}

		if _, err := tx.CancelPendingRequests(ctx, d.ID, now); err != nil {
			return err
		}
		if err := tx.SetOrderDeliveryStatus(ctx, d.OrderID, domain.DeliveryAssigned); err != nil {
			return err
		}
		ok, err = tx.SetCourierStatusFrom(ctx, courierID, domain.CourierBusy, []domain.CourierStatus{domain.CourierAvailable})
		if err != nil {
			return err
		}
		if !ok {
			return errCourierUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, s.acceptConflict(err)
	}

	req.Status = domain.RequestAccepted
	req.RespondedAt = &now
	d.CourierID = &courierID
	d.Status = domain.DeliveryAssigned
	d.AssignedAt = &now

	s.metrics.ObserveTransition(domain.DeliveryAssigned)
	s.logger.Info("courier assigned",
		logx.String("event", "request_accepted"),
		logx.String("delivery_id", d.ID.String()),
		logx.String("request_id", req.ID.String()),
		logx.String("courier_id", courierID.String()),
	)

	sctx, scancel := s.afterCommit(ctx)
	defer scancel()

	data := map[string]any{"deliveryId": d.ID, "courierId": courierID, "orderId": d.OrderID}
	s.openThread(sctx, d.BuyerID, courierID, d.StoreID)
	s.notify(sctx, domain.Notification{
		UserID: d.BuyerID,
		Title:  "Courier assigned",
		Body:   "Your delivery has a courier",
		Data:   data,
	})
	s.notify(sctx, domain.Notification{
		UserID: d.StoreOwnerID,
		Title:  "Courier accepted",
		Body:   "A courier accepted the delivery",
		Data:   data,
	})
	s.broadcaster.EmitToDelivery(d.ID, domain.EventDeliveryAssigned, domain.AssignedEvent{
		DeliveryID: d.ID,
		CourierID:  courierID,
	})

	return &AcceptResult{Request: *req, Delivery: *d}, nil
}

// acceptConflict counts lost accepts by code and passes err through.
func (s *Service) acceptConflict(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		s.metrics.ObserveAcceptConflict(apperr.CodeOf(err))
	}
	return err
}

// DeclineRequest marks a PENDING request addressed to courierID as DECLINED.
func (s *Service) DeclineRequest(ctx context.Context, requestID, courierID uuid.UUID) (*domain.DeliveryRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errRequestNotFound
	}
	if req.CourierID != courierID {
		return nil, errRequestForbidden
	}
	if req.Status != domain.RequestPending {
		return nil, errRequestNotPending
	}

	now := s.now()
	ok, err := s.repo.DeclineRequest(ctx, req.ID, courierID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRequestNotPending
	}

	req.Status = domain.RequestDeclined
	req.RespondedAt = &now
	s.logger.Info("delivery request declined",
		logx.String("event", "request_declined"),
		logx.String("delivery_id", req.DeliveryID.String()),
		logx.String("request_id", req.ID.String()),
		logx.String("courier_id", courierID.String()),
	)
	return req, nil
}
