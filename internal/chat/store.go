package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
)

type Store interface {
	CreateMessage(ctx context.Context, message *Message) error
	// ListMessages returns the room's messages ascending by created_at,
	// insertion order breaking ties
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]*Message, error)
}

// ProfileStore is the batch identity lookup messages are joined against
type ProfileStore interface {
	GetProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.Profile, error)
}

// Membership answers whether a user may read and write a room's chat
type Membership interface {
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// Notifier tells everyone watching the room that the chat log grew
type Notifier interface {
	MessagePosted(roomID uuid.UUID)
}
