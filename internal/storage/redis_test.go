package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/pkg/world"
)

// setupTestRedis creates a RedisStorage backed by an in-memory server.
func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rs := NewRedisStorage(mr.Addr(), t.TempDir(), time.Hour, logger)
	t.Cleanup(func() { _ = rs.Close() })
	return rs, mr
}

func TestPing(t *testing.T) {
	rs, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	mr.Close()
	if err := rs.Ping(ctx); err == nil {
		t.Error("Ping() expected error after server close, got nil")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	rs, _ := setupTestRedis(t)
	ctx := context.Background()

	snap, err := json.Marshal(&world.Snapshot{
		Version: world.SnapshotVersion,
		Player:  &world.Player{Room: "cellar", Moves: 7},
	})
	if err != nil {
		t.Fatal(err)
	}

	id := uuid.New()
	s := &Session{
		ID:        id,
		WorldFile: "underground.json",
		CreatedAt: time.Now(),
		Snapshot:  snap,
	}

	if err := rs.SaveSession(ctx, id, s); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("SaveSession() should stamp UpdatedAt")
	}

	loaded, err := rs.LoadSession(ctx, id)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadSession() returned nil for saved session")
	}
	if loaded.ID != id {
		t.Errorf("loaded.ID = %s, want %s", loaded.ID, id)
	}
	if loaded.WorldFile != "underground.json" {
		t.Errorf("loaded.WorldFile = %q, want %q", loaded.WorldFile, "underground.json")
	}
	restored, err := world.LoadSnapshot(loaded.Snapshot)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if restored.Player == nil || restored.Player.Room != "cellar" {
		t.Errorf("restored snapshot player = %+v, want room cellar", restored.Player)
	}
	if restored.Player.Moves != 7 {
		t.Errorf("restored.Player.Moves = %d, want 7", restored.Player.Moves)
	}
}

func TestLoadSessionNotFound(t *testing.T) {
	rs, _ := setupTestRedis(t)

	loaded, err := rs.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("LoadSession() = %+v, want nil for missing session", loaded)
	}
}

func TestDeleteSession(t *testing.T) {
	rs, _ := setupTestRedis(t)
	ctx := context.Background()

	id := uuid.New()
	if err := rs.SaveSession(ctx, id, &Session{ID: id, WorldFile: "w.json"}); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if err := rs.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	loaded, err := rs.LoadSession(ctx, id)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if loaded != nil {
		t.Error("session still present after delete")
	}
}

func TestSessionTTL(t *testing.T) {
	rs, mr := setupTestRedis(t)
	ctx := context.Background()

	id := uuid.New()
	if err := rs.SaveSession(ctx, id, &Session{ID: id}); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	key := "session:" + id.String()
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Errorf("TTL(%s) = %v, want %v", key, ttl, time.Hour)
	}
}

func TestListWorlds(t *testing.T) {
	dir := t.TempDir()
	worldsDir := filepath.Join(dir, "worlds")
	if err := os.MkdirAll(worldsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cat := map[string]interface{}{
		"name":       "Great Underground Empire",
		"start_room": "west-of-house",
		"rooms":      []interface{}{},
	}
	data, _ := json.Marshal(cat)
	if err := os.WriteFile(filepath.Join(worldsDir, "empire.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-JSON files are skipped.
	if err := os.WriteFile(filepath.Join(worldsDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rs := NewRedisStorage(mr.Addr(), dir, time.Hour, logger)
	defer rs.Close()

	worlds, err := rs.ListWorlds(context.Background())
	if err != nil {
		t.Fatalf("ListWorlds() error = %v", err)
	}
	if len(worlds) != 1 {
		t.Fatalf("ListWorlds() returned %d worlds, want 1", len(worlds))
	}
	if worlds["Great Underground Empire"] != "empire.json" {
		t.Errorf("worlds = %v, want map containing Great Underground Empire -> empire.json", worlds)
	}

	raw, err := rs.GetWorldCatalogue(context.Background(), "empire.json")
	if err != nil {
		t.Fatalf("GetWorldCatalogue() error = %v", err)
	}
	var probe struct {
		StartRoom string `json:"start_room"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		t.Fatalf("catalogue is not valid JSON: %v", err)
	}
	if probe.StartRoom != "west-of-house" {
		t.Errorf("start_room = %q, want west-of-house", probe.StartRoom)
	}
}

func TestGetWorldCatalogueNotFound(t *testing.T) {
	rs, _ := setupTestRedis(t)

	if _, err := rs.GetWorldCatalogue(context.Background(), "missing.json"); err == nil {
		t.Error("GetWorldCatalogue() expected error for missing file, got nil")
	}
}
