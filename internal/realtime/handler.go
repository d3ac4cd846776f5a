package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/internal/room"
)

// RoomSource provides the state a freshly connected client is sent
// and answers whether the caller may subscribe at all
type RoomSource interface {
	GetRoomByID(ctx context.Context, roomID uuid.UUID) (*room.Room, error)
	GetParticipants(ctx context.Context, roomID uuid.UUID) ([]*room.ParticipantProfile, error)
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

type Handler struct {
	manager     *Manager
	rooms       RoomSource
	authService *auth.Service
	log         *slog.Logger
	dbTimeout   time.Duration
}

func NewHandler(manager *Manager, rooms RoomSource, authService *auth.Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{
		manager:     manager,
		rooms:       rooms,
		authService: authService,
		log:         log,
		dbTimeout:   dbTimeout,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleConnection)
}

// snapshot is the full room state pushed right after connect
type snapshot struct {
	Room         *room.Room                 `json:"room"`
	Participants []*room.ParticipantProfile `json:"participants"`
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	roomIDStr := r.URL.Query().Get("room_id")
	if roomIDStr == "" {
		http.Error(w, "room_id parameter required", http.StatusBadRequest)
		return
	}

	roomID, err := uuid.Parse(roomIDStr)
	if err != nil {
		http.Error(w, "Invalid room_id format", http.StatusBadRequest)
		return
	}

	// Try to get token from Authorization header first
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	// Browsers can't set headers on WebSocket requests, fall back to query
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		http.Error(w, "Missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authService.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.dbTimeout)
	isInRoom, err := h.rooms.IsParticipant(ctx, roomID, claims.UserID)
	cancel()
	if err != nil {
		h.log.Error("failed to verify room membership",
			"user_id", claims.UserID,
			"room_id", roomID,
			"error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !isInRoom {
		http.Error(w, "You are not a member of this room", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin enforcement happens at the proxy in deployment
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn("failed to accept websocket connection",
			"user_id", claims.UserID,
			"room_id", roomID,
			"error", err)
		return
	}

	h.log.Info("websocket connection established",
		"user_id", claims.UserID,
		"room_id", roomID,
		"username", claims.Username,
	)

	hub := h.manager.GetOrCreateHub(roomID)
	client := NewClient(claims.UserID, claims.Username, roomID, conn, hub, h.log)

	// The hub can evict itself for idleness between lookup and
	// registration, in which case the manager hands out a fresh one
	if !hub.Register(client) {
		hub = h.manager.GetOrCreateHub(roomID)
		client.hub = hub
		hub.Register(client)
	}

	// The pumps own the connection from here
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	h.sendWelcome(client, roomID)
}

// sendWelcome pushes the connection ack and the initial state snapshot
// directly to the new client, bypassing the room-wide broadcast
func (h *Handler) sendWelcome(client *Client, roomID uuid.UUID) {
	ack := Event{
		Type:      TypeConnectionAck,
		RoomID:    roomID,
		Data:      map[string]any{"user_id": client.userID},
		Timestamp: time.Now().Unix(),
	}
	h.sendDirect(client, ack)

	ctx, cancel := context.WithTimeout(context.Background(), h.dbTimeout)
	defer cancel()

	current, err := h.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		h.log.Error("failed to load room for snapshot",
			"room_id", roomID,
			"error", err)
		return
	}

	participants, err := h.rooms.GetParticipants(ctx, roomID)
	if err != nil {
		h.log.Error("failed to load participants for snapshot",
			"room_id", roomID,
			"error", err)
		return
	}

	h.sendDirect(client, Event{
		Type:      TypeSnapshot,
		RoomID:    roomID,
		Data:      snapshot{Room: current, Participants: participants},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) sendDirect(client *Client, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		h.log.Error("failed to marshal event", "error", err)
		return
	}

	// The client may have dropped and been unregistered already,
	// in which case the welcome is simply lost with the connection
	if !client.trySend(data) {
		h.log.Warn("welcome event dropped, client buffer full or gone",
			"user_id", client.userID,
			"room_id", client.roomID)
	}
}
