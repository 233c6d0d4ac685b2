package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/logx"
)

// CodeBadOrderID marks an event whose order id is not a uuid.
const CodeBadOrderID = "BAD_ORDER_ID"

// Processor processes order events.
type Processor struct {
	delivery DeliveryPort
	factory  *actionFactory
	logger   logx.Logger
}

// NewProcessor creates a Processor on top of the delivery service.
func NewProcessor(deliverySvc DeliveryPort, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{
		delivery: deliverySvc,
		logger:   logger,
	}
	p.factory = newActionFactory(p.onCanceled)
	return p
}

// Handle processes a single order event. Statuses without an action are ignored.
// A malformed order id yields an apperr.ErrInvalid error that retrying cannot fix.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	orderID, err := uuid.Parse(strings.TrimSpace(e.OrderID))
	if err != nil {
		return apperr.Invalid(CodeBadOrderID, "order id must be a uuid")
	}
	return fn(ctx, orderID, e)
}

func (p *Processor) onCanceled(ctx context.Context, orderID uuid.UUID, e Event) error {
	err := p.delivery.CancelByOrder(ctx, orderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.logger.Info("order cancel applied",
		logx.String("order_id", orderID.String()),
		logx.String("status", e.Status),
	)
	return nil
}
