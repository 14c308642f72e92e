package telemetry

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSinkWrite(t *testing.T) {
	_, client := setupTestRedis(t)
	sink := NewRedisSink(client, "telemetry", nil)

	event := Event{
		Type:      EventParseSuccess,
		Timestamp: time.Now(),
		GameID:    "game-123",
		Data:      map[string]interface{}{"verb": "take"},
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestRedisSinkDefaultChannel(t *testing.T) {
	_, client := setupTestRedis(t)
	sink := NewRedisSink(client, "", nil)
	if sink.channel != "telemetry" {
		t.Errorf("channel = %q, want telemetry", sink.channel)
	}
}

func TestRedisSinkWriteFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	mr.Close()

	sink := NewRedisSink(client, "telemetry", nil)
	if err := sink.Write(Event{Type: EventParseAttempt}); err == nil {
		t.Error("publish to a closed server should fail")
	}
}
