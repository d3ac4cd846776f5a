package friend

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	// GetBetween returns any existing edge between the two users,
	// checked in both directions, or nil when none exists
	GetBetween(ctx context.Context, userID, otherID uuid.UUID) (*Edge, error)
	// AddMutual records an accepted friendship as a pair of edges,
	// one per direction, in a single transaction
	AddMutual(ctx context.Context, userID, friendID uuid.UUID) error
	// ListFriends returns the accepted edges originating at userID
	// with the other side's profile joined in
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*Friend, error)
}
