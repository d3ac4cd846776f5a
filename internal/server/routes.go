package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/internal/chat"
	"github.com/rx3lixir/partywatch/internal/friend"
	"github.com/rx3lixir/partywatch/internal/realtime"
	"github.com/rx3lixir/partywatch/internal/room"
	"github.com/rx3lixir/partywatch/internal/user"
)

type RouterConfig struct {
	UserHandler     *user.Handler
	RoomHandler     *room.Handler
	ChatHandler     *chat.Handler
	FriendHandler   *friend.Handler
	RealtimeHandler *realtime.Handler
	AuthService     *auth.Service
	Log             *slog.Logger
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(config.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no middleware)
		r.Route("/auth", func(r chi.Router) {
			config.UserHandler.RegisterAuthRoutes(r)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(config.AuthService))

			r.Route("/users", func(r chi.Router) {
				config.UserHandler.RegisterUserRoutes(r)
			})

			r.Route("/rooms", func(r chi.Router) {
				config.RoomHandler.RegisterRoutes(r)

				r.Route("/{roomID}/messages", func(r chi.Router) {
					config.ChatHandler.RegisterRoutes(r)
				})
			})

			r.Route("/friends", func(r chi.Router) {
				config.FriendHandler.RegisterRoutes(r)
			})
		})
	})

	// WebSocket endpoint does its own token validation, browsers can't
	// attach Authorization headers to socket upgrades
	r.Route("/ws", func(r chi.Router) {
		config.RealtimeHandler.RegisterRoutes(r)
	})

	return r
}

// RequestLogger logs every request with status, latency, request_id, etc.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latency := time.Since(start)

			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", latency.Milliseconds(),
				"size", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
