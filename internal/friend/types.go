package friend

import (
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// Edge is one direction of a friendship. A confirmed friendship is stored
// as two accepted edges, one per direction, so listing either side's
// friends is a single indexed lookup.
type Edge struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FriendID  uuid.UUID `json:"friend_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Friend struct {
	Edge
	Profile user.Profile `json:"profile"`
}

type AddFriendRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// AddFriendResponse reports the friendship's status. A duplicate add is
// answered with the existing edge's status rather than an error.
type AddFriendResponse struct {
	Status        string `json:"status"`
	AlreadyExists bool   `json:"already_exists"`
}

type ListFriendsResponse struct {
	Friends []*Friend `json:"friends"`
	Count   int       `json:"count"`
}
