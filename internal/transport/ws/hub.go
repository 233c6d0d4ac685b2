// Package ws is the streaming surface: authenticated WebSocket connections
// grouped into user and delivery rooms.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"service-dispatch/internal/logx"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UserRoom is the room every connection of a user joins.
func UserRoom(userID uuid.UUID) string { return "user:" + userID.String() }

// DeliveryRoom is the room of a delivery's live channel.
func DeliveryRoom(deliveryID uuid.UUID) string { return "delivery:" + deliveryID.String() }

// Hub tracks connected clients by room and fans events out to them.
// Delivery is best effort: a client whose send buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	logger  logx.Logger
	metrics Metrics
}

// NewHub creates an empty Hub. metrics may be nil.
func NewHub(logger logx.Logger, metrics Metrics) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// EmitToUser sends event to every connection of userID.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, payload any) {
	h.emit(UserRoom(userID), event, payload)
}

// EmitToDelivery sends event to every subscriber of the delivery.
func (h *Hub) EmitToDelivery(deliveryID uuid.UUID, event string, payload any) {
	h.emit(DeliveryRoom(deliveryID), event, payload)
}

func (h *Hub) emit(room, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		h.logger.Error("encode frame failed", logx.String("event", event), logx.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if !c.enqueue(msg) {
			h.metrics.FrameDropped(event)
			h.logger.Debug("slow consumer, frame dropped",
				logx.String("event", event),
				logx.String("room", room),
				logx.String("user_id", c.userID.String()),
			)
		}
	}
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.join(c, UserRoom(c.userID))
	h.metrics.ConnectionOpened()
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// unregister removes c from every room and closes its send queue.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.closeSend()
	h.metrics.ConnectionClosed()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Members returns the number of clients in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
