package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/pkg/httputil"
	"github.com/rx3lixir/partywatch/pkg/videourl"
)

const maxRoomNameLen = 50

type Handler struct {
	store     Store
	notifier  Notifier
	origin    string
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, notifier Notifier, origin string, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, notifier, origin, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", httputil.Handler(h.HandleCreateRoom, h.log))
	r.Get("/", httputil.Handler(h.HandleGetOwnedRooms, h.log))
	r.Post("/join", httputil.Handler(h.HandleJoinRoom, h.log))
	r.Get("/{roomID}", httputil.Handler(h.HandleGetRoom, h.log))
	r.Get("/{roomID}/participants", httputil.Handler(h.HandleGetParticipants, h.log))
	r.Put("/{roomID}/video", httputil.Handler(h.HandleUpdateVideoURL, h.log))
	r.Put("/{roomID}/playback", httputil.Handler(h.HandleUpdatePlayback, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("room name is required")
	}
	// Character count, not bytes, multibyte names get the full 50
	if n := utf8.RuneCountInString(name); n > maxRoomNameLen {
		return "", fmt.Errorf("room name must be no more than %d characters, got %d", maxRoomNameLen, n)
	}
	return name, nil
}

// HandleCreateRoom creates a new room with the caller as owner and first participant
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) error {
	creatorID := auth.GetUserID(r.Context())
	if creatorID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(CreateRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	name, err := validateRoomName(req.Name)
	if err != nil {
		return httputil.BadRequest("Validation failed", map[string]string{
			"validation_error": err.Error(),
		})
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	room := &Room{
		Name:      name,
		CreatedBy: creatorID,
	}

	if err := h.store.CreateRoom(ctx, room); err != nil {
		h.log.Error("failed to create room in database",
			"creator_id", creatorID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Info("room created",
		"room_id", room.ID,
		"invite_code", room.InviteCode,
		"creator_id", creatorID)

	response := CreateRoomResponse{
		Room:       *room,
		InviteLink: videourl.BuildInviteLink(h.origin, room.ID, room.InviteCode),
	}

	return httputil.RespondJSON(w, http.StatusCreated, response)
}

// HandleGetOwnedRooms lists rooms the authenticated user created, newest first
func (h *Handler) HandleGetOwnedRooms(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	rooms, err := h.store.GetRoomsOwnedBy(ctx, userID)
	if err != nil {
		h.log.Error("failed to get owned rooms",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	roomList := make([]RoomWithOwner, len(rooms))
	for i, rm := range rooms {
		roomList[i] = *rm
	}

	h.log.Debug("owned rooms retrieved",
		"user_id", userID,
		"room_count", len(roomList))

	return httputil.RespondJSON(w, http.StatusOK, ListRoomsResponse{
		Rooms: roomList,
		Count: len(roomList),
	})
}

// HandleJoinRoom resolves an invite code and adds the caller to the room.
// Joining a room you are already in reports success, not an error.
func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(JoinRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	code := NormalizeInviteCode(req.InviteCode)
	if code == "" {
		return httputil.BadRequest("Invite code is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	room, err := h.store.GetRoomByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Invalid invite code")
		}
		h.log.Error("failed to resolve invite code", "error", err)
		return httputil.Internal(err)
	}

	participant := &Participant{
		RoomID: room.ID,
		UserID: userID,
	}

	added, err := h.store.AddParticipant(ctx, participant)
	if err != nil {
		h.log.Error("failed to join room",
			"room_id", room.ID,
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	if added {
		h.log.Info("user joined room",
			"room_id", room.ID,
			"user_id", userID)
		h.notifier.ParticipantsChanged(room.ID)
	} else {
		h.log.Debug("join was a no-op, user already a member",
			"room_id", room.ID,
			"user_id", userID)
	}

	return httputil.RespondJSON(w, http.StatusOK, JoinRoomResponse{
		RoomID:        room.ID,
		AlreadyMember: !added,
	})
}

// HandleGetRoom gets room details with participants
func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	room, err := h.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Room not found")
		}
		return httputil.Internal(err)
	}

	participants, err := h.store.GetParticipants(ctx, roomID)
	if err != nil {
		h.log.Error("failed to retrieve room participants",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	participantList := make([]ParticipantProfile, len(participants))
	for i, p := range participants {
		participantList[i] = *p
	}

	response := RoomResponse{
		Room:         *room,
		Participants: participantList,
		InviteLink:   videourl.BuildInviteLink(h.origin, room.ID, room.InviteCode),
		EmbedURL:     videourl.ToEmbeddable(room.VideoURL),
	}

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleGetParticipants gets all participants in a room
func (h *Handler) HandleGetParticipants(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	participants, err := h.store.GetParticipants(ctx, roomID)
	if err != nil {
		h.log.Error("failed to retrieve room participants",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	participantList := make([]ParticipantProfile, len(participants))
	for i, p := range participants {
		participantList[i] = *p
	}

	return httputil.RespondJSON(w, http.StatusOK, ParticipantsResponse{
		Participants: participantList,
		Count:        len(participantList),
	})
}

// HandleUpdateVideoURL sets the shared video for the room. Any participant
// may do this, not just the owner.
func (h *Handler) HandleUpdateVideoURL(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	req := new(UpdateVideoURLRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	url := strings.TrimSpace(req.VideoURL)
	if url == "" {
		return httputil.BadRequest("Video URL is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	room, err := h.store.UpdateVideoURL(ctx, roomID, url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Room not found")
		}
		h.log.Error("failed to update video url",
			"room_id", roomID,
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Info("video url updated",
		"room_id", roomID,
		"user_id", userID)

	h.notifier.RoomUpdated(room)

	return httputil.RespondJSON(w, http.StatusOK, room)
}

// HandleUpdatePlayback writes the playback flags for the room
func (h *Handler) HandleUpdatePlayback(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	req := new(UpdatePlaybackRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.PlaybackPosition < 0 {
		return httputil.BadRequest("Playback position cannot be negative")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	room, err := h.store.UpdatePlayback(ctx, roomID, req.IsPlaying, req.PlaybackPosition)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Room not found")
		}
		h.log.Error("failed to update playback state",
			"room_id", roomID,
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	h.notifier.RoomUpdated(room)

	return httputil.RespondJSON(w, http.StatusOK, room)
}

// requireMembership rejects callers that are not on the room's roster
func (h *Handler) requireMembership(ctx context.Context, roomID, userID uuid.UUID) error {
	isInRoom, err := h.store.IsParticipant(ctx, roomID, userID)
	if err != nil {
		h.log.Error("failed to verify room membership",
			"user_id", userID,
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	if !isInRoom {
		h.log.Warn("request blocked - user not in room",
			"user_id", userID,
			"room_id", roomID)
		return httputil.Forbidden("You are not a member of this room")
	}

	return nil
}
