package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/handlers"
	"github.com/cwhitt/adventure-engine/internal/logger"
	"github.com/cwhitt/adventure-engine/internal/middleware"
	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/internal/storage"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	game, err := services.NewGameService(store, cfg, log)
	if err != nil {
		log.Error("Failed to initialize game service", "error", err)
		os.Exit(1)
	}

	if cfg.TelemetryTransmit {
		sinkClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		game.WithSink(telemetry.NewRedisSink(sinkClient, cfg.TelemetryChannel, log))
		log.Info("Telemetry transmission enabled", "channel", cfg.TelemetryChannel)
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(store, game, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	worldsHandler := handlers.NewWorldsHandler(store, log)
	mux.Handle("/v1/worlds", worldsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
