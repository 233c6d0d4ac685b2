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

// transition describes one post-assignment state change.
type transition struct {
	to        domain.DeliveryStatus
	event     string
	authorize func(d *domain.Delivery) error
	apply     func(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) error
}

// run locks the delivery, authorizes the actor, moves the status with a
// conditional update and applies the side writes, all in one transaction.
func (s *Service) run(ctx context.Context, deliveryID uuid.UUID, t transition) (*domain.Delivery, time.Time, error) {
	var (
		d   *domain.Delivery
		now = s.now()
	)
	err := s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		var err error
		d, err = tx.LockDelivery(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return errDeliveryNotFound
		}
		if err := t.authorize(d); err != nil {
			return err
		}

		ok, err := tx.TransitionDelivery(ctx, d.ID, t.to, now)
		if err != nil {
			return err
		}
		if !ok {
			if d.Status.Terminal() {
				return errDeliveryClosed
			}
			return apperr.Conflict(CodeInvalidTransition,
				"cannot move delivery from "+string(d.Status)+" to "+string(t.to))
		}
		return t.apply(ctx, tx, d)
	})
	if err != nil {
		return nil, now, err
	}

	d.Status = t.to
	d.UpdatedAt = now
	switch t.to {
	case domain.DeliveryPickedUp:
		d.PickedUpAt = &now
	case domain.DeliveryDelivered:
		d.DeliveredAt = &now
	}

	fields := []logx.Field{
		logx.String("event", t.event),
		logx.String("delivery_id", d.ID.String()),
		logx.String("status", string(t.to)),
	}
	if d.CourierID != nil {
		fields = append(fields, logx.String("courier_id", d.CourierID.String()))
	}
	s.metrics.ObserveTransition(t.to)
	s.logger.Info("delivery status changed", fields...)
	return d, now, nil
}

func assignedCourier(courierID uuid.UUID) func(d *domain.Delivery) error {
	return func(d *domain.Delivery) error {
		if !d.IsCourier(courierID) {
			return errDeliveryForbidden
		}
		return nil
	}
}

// Pickup marks the parcel as collected by the assigned courier and the order as shipped.
func (s *Service) Pickup(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, at, err := s.run(ctx, deliveryID, transition{
		to:        domain.DeliveryPickedUp,
		event:     "delivery_picked_up",
		authorize: assignedCourier(courierID),
		apply: func(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) error {
			if err := tx.SetOrderDeliveryStatus(ctx, d.OrderID, domain.DeliveryPickedUp); err != nil {
				return err
			}
			return tx.SetOrderStatus(ctx, d.OrderID, domain.OrderShipped)
		},
	})
	if err != nil {
		return nil, err
	}
	s.emitStatus(d.ID, d.Status, at)
	return d, nil
}

// StartTransit marks a picked-up delivery as on its way to the buyer.
func (s *Service) StartTransit(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, at, err := s.run(ctx, deliveryID, transition{
		to:        domain.DeliveryInTransit,
		event:     "delivery_in_transit",
		authorize: assignedCourier(courierID),
		apply: func(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) error {
			return tx.SetOrderDeliveryStatus(ctx, d.OrderID, domain.DeliveryInTransit)
		},
	})
	if err != nil {
		return nil, err
	}
	s.emitStatus(d.ID, d.Status, at)
	return d, nil
}

// Complete closes the delivery as DELIVERED and frees the courier.
func (s *Service) Complete(ctx context.Context, deliveryID, courierID uuid.UUID) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, at, err := s.run(ctx, deliveryID, transition{
		to:        domain.DeliveryDelivered,
		event:     "delivery_completed",
		authorize: assignedCourier(courierID),
		apply: func(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) error {
			if err := tx.SetOrderDeliveryStatus(ctx, d.OrderID, domain.DeliveryDelivered); err != nil {
				return err
			}
			if err := tx.SetOrderStatus(ctx, d.OrderID, domain.OrderDelivered); err != nil {
				return err
			}
			return tx.SetCourierStatus(ctx, courierID, domain.CourierAvailable)
		},
	})
	if err != nil {
		return nil, err
	}

	sctx, scancel := s.afterCommit(ctx)
	defer scancel()

	data := map[string]any{"deliveryId": d.ID, "orderId": d.OrderID}
	s.notify(sctx, domain.Notification{UserID: d.BuyerID, Title: "Delivered", Body: "Your order has been delivered", Data: data})
	s.notify(sctx, domain.Notification{UserID: d.StoreOwnerID, Title: "Delivered", Body: "The order has been delivered", Data: data})
	s.emitStatus(d.ID, d.Status, at)
	return d, nil
}

// Cancel closes the delivery as CANCELLED on behalf of the assigned courier or the store owner.
func (s *Service) Cancel(ctx context.Context, deliveryID, userID uuid.UUID) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, at, err := s.run(ctx, deliveryID, s.cancellation(func(d *domain.Delivery) error {
		if d.IsCourier(userID) || d.StoreOwnerID == userID {
			return nil
		}
		return errDeliveryForbidden
	}))
	if err != nil {
		return nil, err
	}
	s.afterCancel(ctx, d, at, userID)
	return d, nil
}

// CancelByOrder cancels the delivery of an order cancelled upstream.
// A missing or already closed delivery is not an error.
func (s *Service) CancelByOrder(ctx context.Context, orderID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if existing == nil || existing.Status.Terminal() {
		s.logger.Debug("order cancel ignored", logx.String("order_id", orderID.String()))
		return nil
	}

	d, at, err := s.run(ctx, existing.ID, s.cancellation(func(*domain.Delivery) error { return nil }))
	if err != nil {
		if apperr.CodeOf(err) == CodeDeliveryClosed {
			return nil
		}
		return err
	}
	s.afterCancel(ctx, d, at, uuid.Nil)
	return nil
}

func (s *Service) cancellation(authorize func(d *domain.Delivery) error) transition {
	return transition{
		to:        domain.DeliveryCancelled,
		event:     "delivery_cancelled",
		authorize: authorize,
		apply: func(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) error {
			if _, err := tx.CancelPendingRequests(ctx, d.ID, s.now()); err != nil {
				return err
			}
			if err := tx.SetOrderDeliveryStatus(ctx, d.OrderID, domain.DeliveryCancelled); err != nil {
				return err
			}
			if d.CourierID != nil {
				return tx.SetCourierStatus(ctx, *d.CourierID, domain.CourierAvailable)
			}
			return nil
		},
	}
}

// afterCancel tells the other side of the job. actor is uuid.Nil for system cancels.
func (s *Service) afterCancel(ctx context.Context, d *domain.Delivery, at time.Time, actor uuid.UUID) {
	sctx, scancel := s.afterCommit(ctx)
	defer scancel()

	data := map[string]any{"deliveryId": d.ID, "orderId": d.OrderID}
	recipients := []uuid.UUID{d.BuyerID, d.StoreOwnerID}
	if d.CourierID != nil {
		recipients = append(recipients, *d.CourierID)
	}
	for _, id := range recipients {
		if id == actor {
			continue
		}
		s.notify(sctx, domain.Notification{UserID: id, Title: "Delivery cancelled", Body: "The delivery has been cancelled", Data: data})
	}
	s.emitStatus(d.ID, d.Status, at)
}
