package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

const statsKeyPrefix = "telemetry:stats:"

// Aggregator consumes telemetry events from the Redis Pub/Sub channel
// the engine sinks publish to, and folds them into per-game counters
// persisted as Redis hashes. Counters are applied with HINCRBY so
// multiple aggregator instances can run side by side.
type Aggregator struct {
	id            string
	client        *redis.Client
	channel       string
	flushInterval time.Duration
	log           *slog.Logger

	mu    sync.Mutex
	games map[string]map[telemetry.EventType]int

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an aggregator reading from the given channel.
func New(client *redis.Client, channel string, flushInterval time.Duration, log *slog.Logger) *Aggregator {
	ctx, cancel := context.WithCancel(context.Background())

	if channel == "" {
		channel = "telemetry"
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}

	return &Aggregator{
		id:            fmt.Sprintf("aggregator-%s", uuid.New().String()[:8]),
		client:        client,
		channel:       channel,
		flushInterval: flushInterval,
		log:           log,
		games:         make(map[string]map[telemetry.EventType]int),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start subscribes and processes events until Stop is called. Pending
// counters are flushed once more on the way out.
func (a *Aggregator) Start() error {
	a.log.Info("Aggregator starting", "aggregator_id", a.id, "channel", a.channel)

	pubsub := a.client.Subscribe(a.ctx, a.channel)
	defer pubsub.Close()

	// Fail fast if the subscription could not be established.
	if _, err := pubsub.Receive(a.ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", a.channel, err)
	}

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	msgs := pubsub.Channel()
	for {
		select {
		case <-a.ctx.Done():
			a.log.Info("Aggregator shutting down", "aggregator_id", a.id)
			if err := a.Flush(context.Background()); err != nil {
				a.log.Error("Final flush failed", "error", err)
			}
			return nil
		case <-ticker.C:
			if err := a.Flush(a.ctx); err != nil {
				a.log.Error("Flush failed", "error", err, "aggregator_id", a.id)
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var event telemetry.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				a.log.Warn("Dropping malformed telemetry event", "error", err)
				continue
			}
			a.Ingest(event)
		}
	}
}

// Stop requests a graceful shutdown.
func (a *Aggregator) Stop() {
	a.log.Info("Aggregator stop requested", "aggregator_id", a.id)
	a.cancel()
}

// Ingest folds one event into the in-memory counters.
func (a *Aggregator) Ingest(event telemetry.Event) {
	gameID := event.GameID
	if gameID == "" {
		gameID = "unknown"
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	counts, ok := a.games[gameID]
	if !ok {
		counts = make(map[telemetry.EventType]int)
		a.games[gameID] = counts
	}
	counts[event.Type]++
}

// Flush applies the accumulated counters to Redis and resets them.
func (a *Aggregator) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := a.games
	a.games = make(map[string]map[telemetry.EventType]int)
	a.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	pipe := a.client.Pipeline()
	now := time.Now().UTC().Format(time.RFC3339)
	for gameID, counts := range pending {
		key := statsKeyPrefix + gameID
		total := 0
		for eventType, n := range counts {
			pipe.HIncrBy(ctx, key, string(eventType), int64(n))
			total += n
		}
		pipe.HIncrBy(ctx, key, "total", int64(total))
		pipe.HSet(ctx, key, "updated_at", now)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		// Put the deltas back so the next flush retries them.
		a.restore(pending)
		return fmt.Errorf("failed to flush telemetry stats: %w", err)
	}

	a.log.Debug("Telemetry stats flushed", "aggregator_id", a.id, "games", len(pending))
	return nil
}

func (a *Aggregator) restore(pending map[string]map[telemetry.EventType]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for gameID, counts := range pending {
		existing, ok := a.games[gameID]
		if !ok {
			a.games[gameID] = counts
			continue
		}
		for eventType, n := range counts {
			existing[eventType] += n
		}
	}
}

// StatsKey returns the Redis key holding a game's counters.
func StatsKey(gameID string) string {
	return statsKeyPrefix + gameID
}
