package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second
)

// Client represents a single WebSocket connection
type Client struct {
	userID   uuid.UUID
	username string
	roomID   uuid.UUID
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
	log      *slog.Logger

	// Guards send against writes racing the hub closing it
	mu     sync.Mutex
	closed bool
}

func NewClient(
	userID uuid.UUID,
	username string,
	roomID uuid.UUID,
	conn *websocket.Conn,
	hub *Hub,
	log *slog.Logger,
) *Client {
	return &Client{
		userID:   userID,
		username: username,
		roomID:   roomID,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 64),
		log:      log,
	}
}

// trySend queues data for the write pump without blocking.
// Reports false when the buffer is full or the client is already gone,
// so a stale handle is a dropped event rather than a panic.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump drains the connection so disconnects are detected.
// Clients talk to the server over REST, the socket is push only.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				c.log.Debug("client disconnected normally",
					"user_id", c.userID,
					"room_id", c.roomID,
				)
			} else {
				c.log.Warn("websocket read error",
					"user_id", c.userID,
					"room_id", c.roomID,
					"error", err,
				)
			}
			return
		}
	}
}

// writePump pumps events from the hub to the WebSocket connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.Close(websocket.StatusNormalClosure, "hub closed channel")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Error("failed to write event",
					"user_id", c.userID,
					"room_id", c.roomID,
					"error", err,
				)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Warn("failed to send ping",
					"user_id", c.userID,
					"room_id", c.roomID,
					"error", err,
				)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
