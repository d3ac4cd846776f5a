package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EventType defines the type of server push event
type EventType string

const (
	// Sent once right after the connection is accepted
	TypeConnectionAck EventType = "connection_ack"

	// Full room state, sent on connect so late joiners catch up
	TypeSnapshot EventType = "snapshot"

	// The room row changed (video url, playback state, name)
	TypeRoomUpdated EventType = "room_updated"

	// The roster changed, clients should refetch participants
	TypeParticipantsChanged EventType = "participants_changed"

	// The chat log grew, clients should refetch messages
	TypeMessagePosted EventType = "message_posted"

	TypeUserJoined EventType = "user_joined"
	TypeUserLeft   EventType = "user_left"
)

// Event represents any message pushed to clients
type Event struct {
	Type      EventType `json:"type"`
	RoomID    uuid.UUID `json:"room_id"`
	Data      any       `json:"data,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
