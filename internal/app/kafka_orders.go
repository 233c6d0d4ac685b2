package app

import (
	"context"
	"errors"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/transport/kafka"
)

type ordersHandler interface {
	Handle(ctx context.Context, e orders.Event) error
}

// makeOrdersKafka adapts the processor to the consumer. Events that can never
// succeed are marked permanent so the consumer commits past them.
func makeOrdersKafka(p ordersHandler) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		err := p.Handle(ctx, event)
		if err != nil && errors.Is(err, apperr.ErrInvalid) {
			return kafka.Permanent(err)
		}
		return err
	}
}
