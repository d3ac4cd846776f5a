package friend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/internal/user"
	"github.com/rx3lixir/partywatch/pkg/httputil"
)

// Users resolves the target of a friend request to a real account
type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Handler struct {
	store     Store
	users     Users
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, users Users, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, users, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", httputil.Handler(h.HandleAddFriend, h.log))
	r.Get("/", httputil.Handler(h.HandleListFriends, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleAddFriend links two accounts. Friendships are mutual from the
// start, so a successful add is immediately visible on both sides.
func (h *Handler) HandleAddFriend(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(AddFriendRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.UserID == uuid.Nil {
		return httputil.BadRequest("User id is required")
	}
	if req.UserID == userID {
		return httputil.BadRequest("You cannot add yourself as a friend")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return httputil.NotFound("User not found")
		}
		h.log.Error("failed to resolve friend target",
			"user_id", userID,
			"target_id", req.UserID,
			"error", err)
		return httputil.Internal(err)
	}

	existing, err := h.store.GetBetween(ctx, userID, req.UserID)
	if err != nil {
		h.log.Error("failed to check existing friendship",
			"user_id", userID,
			"target_id", req.UserID,
			"error", err)
		return httputil.Internal(err)
	}

	// An edge in either direction means the pair is already linked.
	// Report the existing status as success, a duplicate add is not a failure.
	if existing != nil {
		h.log.Debug("friendship already exists",
			"user_id", userID,
			"target_id", req.UserID,
			"status", existing.Status)

		return httputil.RespondJSON(w, http.StatusOK, AddFriendResponse{
			Status:        existing.Status,
			AlreadyExists: true,
		})
	}

	if err := h.store.AddMutual(ctx, userID, req.UserID); err != nil {
		h.log.Error("failed to create friendship",
			"user_id", userID,
			"target_id", req.UserID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Info("friendship created",
		"user_id", userID,
		"friend_id", req.UserID)

	return httputil.RespondJSON(w, http.StatusCreated, AddFriendResponse{
		Status: StatusAccepted,
	})
}

func (h *Handler) HandleListFriends(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	friends, err := h.store.ListFriends(ctx, userID)
	if err != nil {
		h.log.Error("failed to list friends",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, ListFriendsResponse{
		Friends: friends,
		Count:   len(friends),
	})
}
