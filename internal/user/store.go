package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store defines what storage operations user entity have
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SearchUsers(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]*Profile, error)
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
}

// AvatarStore is the object storage behind profile avatars.
// Upload returns the public URL the avatar is served from.
type AvatarStore interface {
	Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
}
