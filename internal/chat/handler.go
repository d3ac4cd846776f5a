package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/pkg/httputil"
)

const maxMessageLen = 500

type Handler struct {
	store      Store
	profiles   ProfileStore
	membership Membership
	notifier   Notifier
	log        *slog.Logger
	dbTimeout  time.Duration
}

func NewHandler(store Store, profiles ProfileStore, membership Membership, notifier Notifier, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, profiles, membership, notifier, log, dbTimeout}
}

// RegisterRoutes mounts the chat endpoints under a room route,
// expects {roomID} in the path
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleListMessages, h.log))
	r.Post("/", httputil.Handler(h.HandlePostMessage, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandlePostMessage appends a message to the room's chat
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	req := new(PostMessageRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return httputil.BadRequest("Message text is required")
	}
	// Character count, not bytes, multibyte messages get the full 500
	if utf8.RuneCountInString(text) > maxMessageLen {
		return httputil.BadRequest("Message must be no more than 500 characters")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	message := &Message{
		RoomID: roomID,
		UserID: userID,
		Text:   text,
	}

	if err := h.store.CreateMessage(ctx, message); err != nil {
		h.log.Error("failed to create message",
			"room_id", roomID,
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Debug("message posted",
		"room_id", roomID,
		"user_id", userID,
		"message_id", message.ID)

	h.notifier.MessagePosted(roomID)

	return httputil.RespondJSON(w, http.StatusCreated, message)
}

// HandleListMessages returns the room's chat log oldest first, authors
// joined via a single batch profile lookup
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.requireMembership(ctx, roomID, userID); err != nil {
		return err
	}

	messages, err := h.store.ListMessages(ctx, roomID)
	if err != nil {
		h.log.Error("failed to list messages",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	profiles, err := h.profiles.GetProfilesByIDs(ctx, distinctAuthorIDs(messages))
	if err != nil {
		h.log.Error("failed to load message authors",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	withAuthors := attachAuthors(messages, profiles)

	return httputil.RespondJSON(w, http.StatusOK, ListMessagesResponse{
		Messages: withAuthors,
		Count:    len(withAuthors),
	})
}

func (h *Handler) requireMembership(ctx context.Context, roomID, userID uuid.UUID) error {
	isInRoom, err := h.membership.IsParticipant(ctx, roomID, userID)
	if err != nil {
		h.log.Error("failed to verify room membership",
			"user_id", userID,
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	if !isInRoom {
		return httputil.Forbidden("You are not a member of this room")
	}

	return nil
}
