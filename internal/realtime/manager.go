package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/room"
)

// Manager owns one hub per active room and fans domain changes out to them.
// It is the bridge the REST handlers notify after every successful write.
type Manager struct {
	hubs sync.Map // map[uuid.UUID]*Hub
	log  *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{log: log}
}

// GetOrCreateHub returns existing hub or creates new one
func (m *Manager) GetOrCreateHub(roomID uuid.UUID) *Hub {
	if hub, ok := m.hubs.Load(roomID); ok {
		return hub.(*Hub)
	}

	hub := NewHub(roomID, m.log)
	// Compare against this exact hub so an eviction can never drop a
	// successor hub that replaced it under the same room id
	hub.onIdle = func() { m.hubs.CompareAndDelete(roomID, hub) }

	actual, loaded := m.hubs.LoadOrStore(roomID, hub)

	if !loaded {
		// We created a new hub, start it
		go hub.Run()
		m.log.Info("created new hub", "room_id", roomID)
	}

	return actual.(*Hub)
}

// RoomUpdated pushes the changed room row to everyone watching it.
// The row is sent whole, so whatever write landed last wins on every screen.
func (m *Manager) RoomUpdated(updated *room.Room) {
	m.sendToRoom(updated.ID, Event{
		Type:   TypeRoomUpdated,
		RoomID: updated.ID,
		Data:   updated,
	})
}

// ParticipantsChanged tells the room's clients to refetch the roster
func (m *Manager) ParticipantsChanged(roomID uuid.UUID) {
	m.sendToRoom(roomID, Event{
		Type:   TypeParticipantsChanged,
		RoomID: roomID,
	})
}

// MessagePosted tells the room's clients to refetch the chat log
func (m *Manager) MessagePosted(roomID uuid.UUID) {
	m.sendToRoom(roomID, Event{
		Type:   TypeMessagePosted,
		RoomID: roomID,
	})
}

func (m *Manager) sendToRoom(roomID uuid.UUID, event Event) {
	// No hub means no one is connected, nothing to push
	if hub, ok := m.hubs.Load(roomID); ok {
		hub.(*Hub).Send(event)
	}
}

// Shutdown gracefully shuts down all hubs
func (m *Manager) Shutdown() {
	m.hubs.Range(func(key, value any) bool {
		value.(*Hub).Shutdown()
		return true
	})
}

// Metrics returns per-room hub metrics for monitoring
func (m *Manager) Metrics() map[uuid.UUID]*HubMetrics {
	metrics := make(map[uuid.UUID]*HubMetrics)
	m.hubs.Range(func(key, value any) bool {
		metrics[key.(uuid.UUID)] = value.(*Hub).metrics
		return true
	})
	return metrics
}
