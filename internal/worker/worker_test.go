package worker

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

func setupTestAggregator(t *testing.T) (*Aggregator, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, "telemetry", time.Hour, logger), client
}

func hashInt(t *testing.T, client *redis.Client, key, field string) int {
	t.Helper()
	val, err := client.HGet(context.Background(), key, field).Result()
	if err != nil {
		t.Fatalf("HGet(%s, %s) failed: %v", key, field, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		t.Fatalf("HGet(%s, %s) = %q, not an integer", key, field, val)
	}
	return n
}

func TestIngestAndFlush(t *testing.T) {
	agg, client := setupTestAggregator(t)

	agg.Ingest(telemetry.Event{Type: telemetry.EventParseAttempt, GameID: "g1"})
	agg.Ingest(telemetry.Event{Type: telemetry.EventParseAttempt, GameID: "g1"})
	agg.Ingest(telemetry.Event{Type: telemetry.EventParseSuccess, GameID: "g1"})
	agg.Ingest(telemetry.Event{Type: telemetry.EventActorTick, GameID: "g2"})

	if err := agg.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := hashInt(t, client, StatsKey("g1"), string(telemetry.EventParseAttempt)); got != 2 {
		t.Errorf("g1 parse.attempt = %d, want 2", got)
	}
	if got := hashInt(t, client, StatsKey("g1"), "total"); got != 3 {
		t.Errorf("g1 total = %d, want 3", got)
	}
	if got := hashInt(t, client, StatsKey("g2"), "total"); got != 1 {
		t.Errorf("g2 total = %d, want 1", got)
	}
}

func TestFlushAccumulatesAcrossBatches(t *testing.T) {
	agg, client := setupTestAggregator(t)

	agg.Ingest(telemetry.Event{Type: telemetry.EventParseAttempt, GameID: "g1"})
	if err := agg.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	agg.Ingest(telemetry.Event{Type: telemetry.EventParseAttempt, GameID: "g1"})
	if err := agg.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := hashInt(t, client, StatsKey("g1"), string(telemetry.EventParseAttempt)); got != 2 {
		t.Errorf("g1 parse.attempt = %d, want 2", got)
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	agg, client := setupTestAggregator(t)

	if err := agg.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	keys, err := client.Keys(context.Background(), statsKeyPrefix+"*").Result()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no stats keys, got %v", keys)
	}
}

func TestEventsWithoutGameID(t *testing.T) {
	agg, client := setupTestAggregator(t)

	agg.Ingest(telemetry.Event{Type: telemetry.EventFuzzyMatch})
	if err := agg.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := hashInt(t, client, StatsKey("unknown"), "total"); got != 1 {
		t.Errorf("unknown total = %d, want 1", got)
	}
}

func TestStartConsumesPublishedEvents(t *testing.T) {
	agg, client := setupTestAggregator(t)

	done := make(chan error, 1)
	go func() { done <- agg.Start() }()

	// Wait for the subscription before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for {
		subs, err := client.PubSubNumSub(context.Background(), "telemetry").Result()
		if err == nil && subs["telemetry"] > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("aggregator never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	payload := `{"type":"parse.attempt","game_id":"g1"}`
	if err := client.Publish(context.Background(), "telemetry", payload).Err(); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// The event arrives asynchronously; poll until the flush sees it.
	deadline = time.Now().Add(2 * time.Second)
	for {
		if err := agg.Flush(context.Background()); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		val, err := client.HGet(context.Background(), StatsKey("g1"), "total").Result()
		if err == nil && val == "1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("published event never aggregated")
		}
		time.Sleep(10 * time.Millisecond)
	}

	agg.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not shut down")
	}
}
