package realtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Hub struct {
	// Room identifier
	roomID uuid.UUID

	// Registered clients (only accessed by hub goroutine)
	clients map[*Client]bool

	// Outbound events to fan out
	broadcast chan Event

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Shutdown signal
	shutdown chan struct{}

	// Closed when the run loop exits, so registration attempts
	// against a dead hub fail instead of blocking forever
	done chan struct{}

	// Called by the run loop when the hub evicts itself for idleness,
	// the manager uses it to drop its map entry
	onIdle func()

	// Metrics
	metrics *HubMetrics

	log *slog.Logger
}

type HubMetrics struct {
	ConnectedClients int
	EventsSent       int64
	EventsDropped    int64
	LastActivity     time.Time
}

func NewHub(roomID uuid.UUID, log *slog.Logger) *Hub {
	return &Hub{
		roomID:     roomID,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    &HubMetrics{LastActivity: time.Now()},
		log:        log,
	}
}

// How long an empty hub lingers before evicting itself
const idleTimeout = 5 * time.Minute

// Run is the main event loop - handles ALL state changes sequentially
func (h *Hub) Run() {
	defer close(h.done)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case event := <-h.broadcast:
			h.handleBroadcast(event)

		case <-ticker.C:
			if h.handleHealthCheck() {
				h.handleShutdown()
				return
			}

		case <-h.shutdown:
			h.handleShutdown()
			return
		}
	}
}

// Register hands the client to the run loop. Reports false when the hub
// already stopped, callers then grab a fresh hub from the manager.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes the client, a no-op against a stopped hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.metrics.ConnectedClients = len(h.clients)

	h.log.Info("client registered",
		"room_id", h.roomID,
		"user_id", client.userID,
		"total_clients", len(h.clients),
	)

	// Notify others
	h.enqueue(Event{
		Type:   TypeUserJoined,
		RoomID: h.roomID,
		Data:   map[string]any{"user_id": client.userID, "username": client.username},
	})
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend() // Signal client to stop
		h.metrics.ConnectedClients = len(h.clients)

		h.log.Info("client unregistered",
			"room_id", h.roomID,
			"user_id", client.userID,
			"remaining_clients", len(h.clients),
		)

		// Notify others
		h.enqueue(Event{
			Type:   TypeUserLeft,
			RoomID: h.roomID,
			Data:   map[string]any{"user_id": client.userID, "username": client.username},
		})
	}
}

func (h *Hub) handleBroadcast(event Event) {
	h.metrics.LastActivity = time.Now()
	event.Timestamp = time.Now().Unix()

	data, err := event.ToJSON()
	if err != nil {
		h.log.Error("failed to marshal event", "error", err)
		return
	}

	// Send to all clients
	for client := range h.clients {
		if client.trySend(data) {
			h.metrics.EventsSent++
		} else {
			// Client is too slow, disconnect it
			h.log.Warn("client buffer full, disconnecting",
				"user_id", client.userID,
				"room_id", h.roomID,
			)
			h.metrics.EventsDropped++
			h.handleUnregister(client)
		}
	}
}

// handleHealthCheck reports whether the hub should stop. An empty hub
// with no activity for idleTimeout evicts itself from the manager so
// every room ever opened does not keep a goroutine alive forever.
func (h *Hub) handleHealthCheck() bool {
	if len(h.clients) > 0 || time.Since(h.metrics.LastActivity) <= idleTimeout {
		return false
	}

	h.log.Info("evicting idle hub", "room_id", h.roomID)
	if h.onIdle != nil {
		h.onIdle()
	}
	return true
}

func (h *Hub) handleShutdown() {
	h.log.Info("shutting down hub", "room_id", h.roomID)

	// Gracefully close all clients
	for client := range h.clients {
		client.closeSend()
	}

	h.clients = nil
}

// enqueue queues an event without blocking the run loop
func (h *Hub) enqueue(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Error("hub broadcast channel full", "room_id", h.roomID)
		h.metrics.EventsDropped++
	}
}

// Send fans an event out to every connected client in the room
func (h *Hub) Send(event Event) {
	h.enqueue(event)
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
