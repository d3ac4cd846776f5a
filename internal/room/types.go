package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
)

type Room struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	InviteCode       string    `json:"invite_code"`
	CreatedBy        uuid.UUID `json:"created_by"`
	VideoURL         string    `json:"video_url,omitempty"`
	IsPlaying        bool      `json:"is_playing"`
	PlaybackPosition float64   `json:"playback_position"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Participant struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ParticipantProfile is a participant joined with their display identity
type ParticipantProfile struct {
	Participant
	Profile user.Profile `json:"profile"`
}

// RoomWithOwner is a room joined with its owner's display identity
type RoomWithOwner struct {
	Room
	Owner user.Profile `json:"owner"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	InviteCode string `json:"invite_code"`
}

type JoinRoomResponse struct {
	RoomID        uuid.UUID `json:"room_id"`
	AlreadyMember bool      `json:"already_member"`
}

type UpdateVideoURLRequest struct {
	VideoURL string `json:"video_url"`
}

type UpdatePlaybackRequest struct {
	IsPlaying        bool    `json:"is_playing"`
	PlaybackPosition float64 `json:"playback_position"`
}

type RoomResponse struct {
	Room         Room                 `json:"room"`
	Participants []ParticipantProfile `json:"participants"`
	InviteLink   string               `json:"invite_link"`
	EmbedURL     string               `json:"embed_url,omitempty"`
}

type CreateRoomResponse struct {
	Room       Room   `json:"room"`
	InviteLink string `json:"invite_link"`
}

type ListRoomsResponse struct {
	Rooms []RoomWithOwner `json:"rooms"`
	Count int             `json:"count"`
}

type ParticipantsResponse struct {
	Participants []ParticipantProfile `json:"participants"`
	Count        int                  `json:"count"`
}
