package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkerrigan/roomrelay/internal/admin"
	"github.com/mkerrigan/roomrelay/internal/factory"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	redisstorage "github.com/mkerrigan/roomrelay/internal/storage/redis"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:       logger,
		StorageType:  os.Getenv("STORAGE_TYPE"),
		AccountsFile: os.Getenv("ACCOUNTS_FILE"),
	}

	if cfg.StorageType == "" && cfg.AccountsFile != "" {
		cfg.StorageType = factory.StorageTypeFile
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	if os.Getenv("PASSWORD_HASHING") == "bcrypt" {
		cfg.Verifier = account.BcryptVerifier{}
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	listenAddr := envOrDefault("LISTEN_ADDR", ":4650")
	wsAddr := envOrDefault("WS_ADDR", ":4651")
	adminAddr := envOrDefault("ADMIN_ADDR", ":8080")

	// Create transport listeners
	tcpServer := transport.NewTCPServer(listenAddr, app.Registry, app.Events, logger)
	wsServer := transport.NewWSServer(wsAddr, app.Registry, app.Events, logger)

	// Create admin server
	adminRouter := admin.NewRouter(admin.RouterConfig{
		Logger:   logger,
		Rooms:    app.Rooms,
		Accounts: app.Accounts,
		Registry: app.Registry,
	})
	adminConfig := admin.DefaultServerConfig()
	adminConfig.Addr = adminAddr
	adminServer := admin.NewServer(adminRouter, adminConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start the event loop
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- app.Loop.Run(ctx)
	}()

	// Start listeners
	if err := tcpServer.Start(); err != nil {
		logger.Error("tcp listener failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := wsServer.Start(); err != nil {
		logger.Error("websocket listener failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- adminServer.Start()
	}()

	logger.Info("relay started",
		slog.String("tcp", tcpServer.Addr()),
		slog.String("ws", wsAddr),
		slog.String("admin", adminServer.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("admin server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	if err := tcpServer.Shutdown(); err != nil {
		logger.Error("tcp shutdown error", slog.String("error", err.Error()))
	}
	if err := wsServer.Shutdown(context.Background()); err != nil {
		logger.Error("websocket shutdown error", slog.String("error", err.Error()))
	}
	if err := adminServer.Shutdown(context.Background()); err != nil {
		logger.Error("admin shutdown error", slog.String("error", err.Error()))
	}
	app.Registry.CloseAll()
	<-loopDone

	logger.Info("relay stopped")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
