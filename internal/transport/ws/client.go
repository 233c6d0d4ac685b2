package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 4096
	sendBufferSize = 64
)

// Client is one authenticated connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	stream Stream
	logger logx.Logger

	// rooms is guarded by hub.mu.
	rooms map[string]struct{}

	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, userID uuid.UUID, stream Stream, logger logx.Logger) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		stream: stream,
		logger: logger.With(logx.String("user_id", userID.String())),
		rooms:  make(map[string]struct{}),
		send:   make(chan []byte, sendBufferSize),
	}
}

// enqueue reports false when the frame was dropped.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type joinRequest struct {
	DeliveryID uuid.UUID `json:"deliveryId"`
}

type joinReply struct {
	DeliveryID uuid.UUID `json:"deliveryId"`
	Success    bool      `json:"success"`
}

// readPump dispatches inbound frames until the connection fails.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed", logx.Err(err))
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("malformed frame ignored", logx.Err(err))
			continue
		}
		c.handle(ctx, f)
	}
}

func (c *Client) handle(ctx context.Context, f Frame) {
	switch f.Event {
	case domain.EventDeliveryJoin:
		var req joinRequest
		ok := json.Unmarshal(f.Data, &req) == nil && req.DeliveryID != uuid.Nil &&
			c.stream.Join(ctx, c.userID, req.DeliveryID)
		if ok {
			c.hub.join(c, DeliveryRoom(req.DeliveryID))
		}
		c.reply(domain.EventDeliveryJoin, joinReply{DeliveryID: req.DeliveryID, Success: ok})

	case domain.EventCourierLocation:
		var r domain.LocationReport
		if err := json.Unmarshal(f.Data, &r); err != nil {
			c.logger.Debug("location report dropped", logx.String("reason", "malformed"))
			return
		}
		c.stream.Report(ctx, c.userID, r)

	default:
		c.logger.Debug("unknown event ignored", logx.String("event", f.Event))
	}
}

func (c *Client) reply(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		return
	}
	if !c.enqueue(msg) {
		c.hub.metrics.FrameDropped(event)
	}
}

// writePump drains the send queue and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
