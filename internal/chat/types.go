package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
)

// Message is one chat entry in a room. Messages are append-only:
// no edits, no deletes.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageWithAuthor is a message joined with its author's display identity
type MessageWithAuthor struct {
	Message
	Author user.Profile `json:"author"`
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

type ListMessagesResponse struct {
	Messages []MessageWithAuthor `json:"messages"`
	Count    int                 `json:"count"`
}
