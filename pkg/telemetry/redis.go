package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes telemetry events to a Redis Pub/Sub channel so
// external consumers (dashboards, log shippers) can subscribe without
// touching the game loop.
type RedisSink struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisSink creates a sink publishing to the given channel.
func NewRedisSink(client *redis.Client, channel string, logger *slog.Logger) *RedisSink {
	if channel == "" {
		channel = "telemetry"
	}
	return &RedisSink{client: client, channel: channel, logger: logger}
}

// Write publishes one event. Publish failures are returned to the
// recorder, which logs and drops; telemetry never fails gameplay.
func (s *RedisSink) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry event: %w", err)
	}

	ctx := context.Background()
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish telemetry event: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("Telemetry event published",
			"channel", s.channel,
			"event_type", event.Type)
	}
	return nil
}
