package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"service-dispatch/internal/service/orders"
)

// ErrEmptyOrderID is returned by DecodeEvent for a message without an order id.
var ErrEmptyOrderID = errors.New("empty order_id")

// eventDTO is the wire shape of an orders topic message.
type eventDTO struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DecodeEvent parses one orders topic message. Id and status are trimmed.
func DecodeEvent(b []byte) (orders.Event, error) {
	var dto eventDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return orders.Event{}, fmt.Errorf("decode order event: %w", err)
	}
	ev := orders.Event{
		OrderID:   strings.TrimSpace(dto.OrderID),
		Status:    strings.TrimSpace(dto.Status),
		CreatedAt: dto.CreatedAt,
	}
	if ev.OrderID == "" {
		return ev, ErrEmptyOrderID
	}
	return ev, nil
}
