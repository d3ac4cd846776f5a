package room

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("room not found")

type Store interface {
	// CreateRoom persists the room and its owner's participant row as one transaction
	CreateRoom(ctx context.Context, room *Room) error
	GetRoomByID(ctx context.Context, roomID uuid.UUID) (*Room, error)
	GetRoomByInviteCode(ctx context.Context, code string) (*Room, error)
	GetRoomsOwnedBy(ctx context.Context, userID uuid.UUID) ([]*RoomWithOwner, error)

	UpdateVideoURL(ctx context.Context, roomID uuid.UUID, videoURL string) (*Room, error)
	UpdatePlayback(ctx context.Context, roomID uuid.UUID, isPlaying bool, position float64) (*Room, error)

	// AddParticipant reports whether a row was actually inserted; re-joining
	// an already joined room is not an error
	AddParticipant(ctx context.Context, participant *Participant) (bool, error)
	GetParticipants(ctx context.Context, roomID uuid.UUID) ([]*ParticipantProfile, error)
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// Notifier publishes row-change notifications to everyone watching a room
type Notifier interface {
	RoomUpdated(room *Room)
	ParticipantsChanged(roomID uuid.UUID)
}
