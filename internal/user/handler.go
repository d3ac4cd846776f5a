package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/pkg/httputil"
	"github.com/rx3lixir/partywatch/pkg/password"
)

const (
	searchLimit   = 10
	maxAvatarSize = 2 << 20 // 2 MiB
)

type Handler struct {
	store       Store
	avatars     AvatarStore
	authService *auth.Service
	log         *slog.Logger
	dbTimeout   time.Duration
}

func NewHandler(store Store, avatars AvatarStore, authService *auth.Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = 5 * time.Second
	}
	return &Handler{store, avatars, authService, log, dbTimeout}
}

// RegisterUserRoutes registers all user-related endpoints under the provided router.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/me", httputil.Handler(h.HandleMe, h.log))
	r.Get("/search", httputil.Handler(h.HandleSearchUsers, h.log))
	r.Post("/me/avatar", httputil.Handler(h.HandleUploadAvatar, h.log))
	r.Get("/{id}", httputil.Handler(h.HandleGetUserByID, h.log))
}

// RegisterAuthRoutes registers authentication-related endpoints (signup, signin, refresh).
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/signup", httputil.Handler(h.HandleSignup, h.log))
	r.Post("/signin", httputil.Handler(h.HandleSignin, h.log))
	r.Post("/refresh", httputil.Handler(h.HandleRefreshToken, h.log))
}

// Context that handles database requests
func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleMe returns the currently authenticated user's profile.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		return httputil.NotFound("User not found")
	}

	return httputil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleGetUserByID retrieves a user by their UUID.
func (h *Handler) HandleGetUserByID(w http.ResponseWriter, r *http.Request) error {
	userID, err := httputil.ParseUUID(r, "id")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("User not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleSearchUsers finds users by username substring, excluding the caller
func (h *Handler) HandleSearchUsers(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		return httputil.BadRequest("Search query is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	profiles, err := h.store.SearchUsers(ctx, query, userID, searchLimit)
	if err != nil {
		h.log.Error("failed to search users",
			"user_id", userID,
			"query", query,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Debug("user search completed",
		"user_id", userID,
		"query", query,
		"matches", len(profiles))

	results := make([]Profile, len(profiles))
	for i, p := range profiles {
		results[i] = *p
	}

	return httputil.RespondJSON(w, http.StatusOK, SearchUsersResponse{
		Users: results,
		Count: len(results),
	})
}

// HandleUploadAvatar stores a new avatar image for the authenticated user
func (h *Handler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		return httputil.BadRequest("Invalid multipart form")
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		return httputil.BadRequest("avatar file is required")
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		return httputil.BadRequest("Avatar must be smaller than 2MB")
	}

	contentType := header.Header.Get("Content-Type")
	if extensionFor(contentType) == "" {
		return httputil.BadRequest("Avatar must be a png, jpeg, gif or webp image")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize))
	if err != nil {
		return httputil.Internal(err)
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	avatarURL, err := h.avatars.Upload(ctx, userID, data, contentType)
	if err != nil {
		h.log.Error("failed to upload avatar",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	if err := h.store.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		h.log.Error("failed to save avatar url",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Info("avatar updated",
		"user_id", userID,
		"size_bytes", len(data))

	return httputil.RespondJSON(w, http.StatusOK, UploadAvatarResponse{AvatarURL: avatarURL})
}

// HandleSignup creates a new user account and immediately returns access + refresh JWT tokens.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) error {
	req := new(SignupRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	h.log.Debug("signup attempt", "email", req.Email)

	if err := validateSignupRequest(req); err != nil {
		return httputil.BadRequest("Validation failed", map[string]string{
			"validation_error": err.Error(),
		})
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", "error", err)
		return httputil.Internal(err)
	}

	newUser := &User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hashedPassword,
	}

	if err := h.store.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return httputil.BadRequest("User with this email already exists")
		}
		if errors.Is(err, ErrUsernameTaken) {
			return httputil.BadRequest("Username is already taken")
		}
		h.log.Error("failed to create user", "error", err)
		return httputil.Internal(err)
	}

	response, err := h.buildAuthResponse(newUser)
	if err != nil {
		return err
	}

	h.log.Info("user signed up",
		"user_id", newUser.ID,
		"email", newUser.Email)

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleSignin authenticates a user and returns JWT pair of tokens
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) error {
	req := new(SigninRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	h.log.Debug("signin attempt", "email", req.Email)

	if req.Email == "" {
		return httputil.BadRequest("Email is required")
	}
	if req.Password == "" {
		return httputil.BadRequest("Password is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		h.log.Warn("signin failed - user not found", "email", email)
		return httputil.Unauthorized("Invalid email or password")
	}

	if !password.Verify(req.Password, user.Password) {
		h.log.Warn("signin failed - invalid password", "email", email)
		return httputil.Unauthorized("Invalid email or password")
	}

	response, err := h.buildAuthResponse(user)
	if err != nil {
		return err
	}

	h.log.Debug("user signed in",
		"user_id", user.ID,
		"email", user.Email)

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleRefreshToken generates new tokens using a refresh token
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) error {
	req := new(RefreshTokenRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.RefreshToken == "" {
		return httputil.BadRequest("Refresh token is required")
	}

	userID, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.log.Debug("invalid or expired refresh token", "error", err)
		return httputil.Unauthorized("Invalid or expired refresh token")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		h.log.Error("user not found during token refresh", "user_id", userID, "error", err)
		return httputil.NotFound("User not found")
	}

	response, err := h.buildAuthResponse(user)
	if err != nil {
		return err
	}

	h.log.Debug("tokens refreshed", "user_id", user.ID)

	return httputil.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) buildAuthResponse(user *User) (*AuthResponse, error) {
	accessToken, err := h.authService.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		h.log.Error("failed to generate access token", "error", err)
		return nil, httputil.Internal(err)
	}

	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		h.log.Error("failed to generate refresh token", "error", err)
		return nil, httputil.Internal(err)
	}

	return &AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

func toUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
