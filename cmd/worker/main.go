package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/logger"
	"github.com/cwhitt/adventure-engine/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting telemetry aggregator",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"channel", cfg.TelemetryChannel)

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established successfully")

	agg := worker.New(redisClient, cfg.TelemetryChannel, 10*time.Second, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := agg.Start(); err != nil {
			log.Error("Aggregator error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Aggregator started, waiting for events...")

	<-quit
	log.Info("Aggregator shutdown signal received")

	agg.Stop()

	// Give the final flush time to complete.
	time.Sleep(2 * time.Second)

	log.Info("Aggregator exited")
}
