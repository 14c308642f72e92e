// Command telemetry-emit publishes synthetic telemetry events, for
// exercising the aggregator worker against a local Redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

func main() {
	addr := flag.String("redis", "localhost:6379", "Redis address")
	channel := flag.String("channel", "telemetry", "telemetry channel")
	gameID := flag.String("game", "", "game ID (random if empty)")
	count := flag.Int("count", 10, "events to publish")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *addr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	fmt.Println("Connected to Redis successfully!")

	id := *gameID
	if id == "" {
		id = uuid.New().String()
	}

	types := []telemetry.EventType{
		telemetry.EventParseAttempt,
		telemetry.EventParseSuccess,
		telemetry.EventFuzzyMatch,
		telemetry.EventDispatchCompleted,
		telemetry.EventActorTick,
	}

	for i := 0; i < *count; i++ {
		event := telemetry.Event{
			Type:      types[i%len(types)],
			Timestamp: time.Now().UTC(),
			GameID:    id,
		}
		data, err := json.Marshal(event)
		if err != nil {
			log.Fatal("Failed to marshal event:", err)
		}
		if err := client.Publish(ctx, *channel, data).Err(); err != nil {
			log.Fatal("Failed to publish event:", err)
		}
	}

	fmt.Printf("Published %d events for game %s on %q\n", *count, id, *channel)
	fmt.Println("Start the aggregator to fold them into telemetry:stats keys:")
	fmt.Println("   go run ./cmd/worker")
}
