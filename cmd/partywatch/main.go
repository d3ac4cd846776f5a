package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/internal/chat"
	"github.com/rx3lixir/partywatch/internal/config"
	"github.com/rx3lixir/partywatch/internal/friend"
	"github.com/rx3lixir/partywatch/internal/realtime"
	"github.com/rx3lixir/partywatch/internal/room"
	"github.com/rx3lixir/partywatch/internal/server"
	"github.com/rx3lixir/partywatch/internal/storage/postgres"
	"github.com/rx3lixir/partywatch/internal/storage/s3"
	"github.com/rx3lixir/partywatch/internal/user"
	"github.com/rx3lixir/partywatch/pkg/logger"
)

func main() {
	// Initializing and validating config
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		fmt.Printf("Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initializing logger
	log := logger.Must(logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	}))

	log.Info("config loaded",
		"env", c.GeneralParams.Env,
		"http_server_address", c.HttpServerParams.GetAddress(),
		"database", c.MainDBParams.Name,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Creating database connection pool
	pool, err := postgres.NewPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		log.Error("failed to create postgres pool",
			"error", err,
			"db", c.MainDBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	log.Info("database connection established", "db", c.MainDBParams.Name)

	// Object storage for avatars
	s3Client, err := s3.NewClient(
		c.S3Params.Endpoint,
		c.S3Params.AccessKeyID,
		c.S3Params.SecretAccessKey,
		c.S3Params.UseSSL,
	)
	if err != nil {
		log.Error("failed to create s3 client", "error", err)
		os.Exit(1)
	}

	avatarStore, err := user.NewMinIOAvatarStore(s3Client, c.S3Params.BucketName, c.S3Params.UseSSL)
	if err != nil {
		log.Error("failed to initialize avatar bucket", "error", err)
		os.Exit(1)
	}

	// JWT service
	authService := auth.NewService(
		c.GeneralParams.SecretKey,
		time.Minute*15,
		time.Hour*24*7,
	)

	// Stores
	userStore := user.NewPostgresStore(pool)
	roomStore := room.NewPostgresStore(pool)
	chatStore := chat.NewPostgresStore(pool)
	friendStore := friend.NewPostgresStore(pool)

	// Realtime fan-out, the REST handlers notify it after every write
	rtManager := realtime.NewManager(log.Logger)

	dbTimeout := time.Duration(c.MainDBParams.Timeout) * time.Second

	// Handlers
	userHandler := user.NewHandler(userStore, avatarStore, authService, log.Logger, dbTimeout)
	roomHandler := room.NewHandler(roomStore, rtManager, c.GeneralParams.PublicOrigin, log.Logger, dbTimeout)
	chatHandler := chat.NewHandler(chatStore, userStore, roomStore, rtManager, log.Logger, dbTimeout)
	friendHandler := friend.NewHandler(friendStore, userStore, log.Logger, dbTimeout)
	realtimeHandler := realtime.NewHandler(rtManager, roomStore, authService, log.Logger, dbTimeout)

	router := server.NewRouter(server.RouterConfig{
		UserHandler:     userHandler,
		RoomHandler:     roomHandler,
		ChatHandler:     chatHandler,
		FriendHandler:   friendHandler,
		RealtimeHandler: realtimeHandler,
		AuthService:     authService,
		Log:             log.Logger,
	})

	httpServer := server.New(c.HttpServerParams.GetAddress(), router, log.Logger)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		rtManager.Shutdown()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}
}
